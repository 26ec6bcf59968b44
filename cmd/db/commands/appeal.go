package commands

import (
	"context"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// AppealCommands returns the appeal maintenance commands.
func AppealCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "appeals",
			Usage: "Inspect and maintain appeals",
			Commands: []*cli.Command{
				{
					Name:   "stats",
					Usage:  "Show appeal statistics",
					Action: handleStats(deps),
				},
				{
					Name:      "close",
					Usage:     "Deny and close an appeal",
					ArgsUsage: "APPEAL_ID",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "by",
							Usage:    "Staff user ID recorded as the closer",
							Required: true,
						},
						&cli.StringFlag{
							Name:  "reason",
							Usage: "Reason appended to the internal notes",
						},
					},
					Action: handleClose(deps),
				},
			},
		},
	}
}

// handleStats handles the 'appeals stats' command.
func handleStats(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		stats, err := deps.DB.Service().Appeal().Stats(ctx)
		if err != nil {
			return err
		}

		deps.Logger.Info("Appeal statistics",
			zap.Int("total", stats.Total),
			zap.Int("pending", stats.Pending),
			zap.Int("underReview", stats.UnderReview),
			zap.Int("approved", stats.Approved),
			zap.Int("denied", stats.Denied),
			zap.Int("escalated", stats.Escalated),
			zap.Float64("avgResponseHours", stats.AvgResponseTime))
		return nil
	}
}

// handleClose handles the 'appeals close' command.
func handleClose(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return ErrAppealIDRequired
		}

		id := c.Args().First()
		if err := deps.DB.Service().Appeal().Close(ctx, id, c.String("by"), c.String("reason")); err != nil {
			return err
		}

		deps.Logger.Info("Closed appeal",
			zap.String("appealID", id),
			zap.String("performedBy", c.String("by")))
		return nil
	}
}
