package main

import (
	"context"
	"errors"
	"strings"

	"finshorts/shared/kafka"
	"finshorts/types"

	"github.com/spf13/cobra"
)

func newConsumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Turn news entries published to Kafka into work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			if len(a.cfg.Kafka.Brokers) == 0 {
				return errors.New("KAFKA_BOOTSTRAP_SERVERS is not set")
			}
			logger := a.logger.With("component", "news-consumer")

			handler := &kafka.TypedMessageHandler[types.NewsItem]{
				Validate: func(n *types.NewsItem) bool {
					if strings.TrimSpace(n.Title) == "" {
						logger.Warn("news entry without title; skipping")
						return false
					}
					return true
				},
				Process: func(ctx context.Context, n *types.NewsItem) error {
					item, created, err := a.ingester.Submit(ctx, n)
					if err != nil {
						return err
					}
					if created {
						logger.Info("work item created", "work_item", item.ID, "title", item.Title)
					} else {
						logger.Info("news entry not accepted", "title", n.Title)
					}
					return nil
				},
				AlwaysMark: true,
				Logger:     logger,
			}

			consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers: a.cfg.Kafka.Brokers,
				Topic:   a.cfg.Kafka.NewsTopic,
				GroupID: a.cfg.Kafka.GroupID,
				Handler: handler,
				Logger:  a.logger,
			})
			if err != nil {
				return err
			}
			defer consumer.Close()

			if err := consumer.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			return nil
		},
	}
}
