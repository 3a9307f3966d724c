package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valence-protocol/valence-go/chainio"
	"github.com/valence-protocol/valence-go/cosmwasm-schema/authorization"
	"github.com/valence-protocol/valence-go/valence-cli/sdk"
)

func ProcessorCommand() *cobra.Command {
	command := &cobra.Command{
		Use: "processor",
	}

	command.AddCommand(processorExecute())
	command.AddCommand(processorQuery())
	return command
}

func processorExecute() *cobra.Command {
	command := &cobra.Command{
		Use: "execute",
	}

	command.AddCommand(&cobra.Command{
		Use:   "tick",
		Short: "To process the next batch at the head of the processor queues.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			clientCtx := sdk.WithKeyring(sdk.NewClientCtx())

			response, err := chainio.NewProcessorClient(
				clientCtx,
				viper.GetString("contracts.processor"),
				sdk.DefaultBroadcastOptions(),
			).Tick(context.Background())
			if err != nil {
				panic(err)
			}

			fmt.Printf("Transaction hash: %s\n", response.Hash.String())
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "pause",
		Short: "To pause the main domain processor. Owner only.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			response, err := authorizationClient().PauseProcessor(context.Background(), authorization.Domain{Main: &authorization.Main{}})
			if err != nil {
				panic(err)
			}

			fmt.Printf("Transaction hash: %s\n", response.Hash.String())
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "resume",
		Short: "To resume a paused main domain processor. Owner only.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			response, err := authorizationClient().ResumeProcessor(context.Background(), authorization.Domain{Main: &authorization.Main{}})
			if err != nil {
				panic(err)
			}

			fmt.Printf("Transaction hash: %s\n", response.Hash.String())
		},
	})

	return command
}

func processorQuery() *cobra.Command {
	command := &cobra.Command{
		Use: "query",
	}

	command.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "To query the processor configuration and state.",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			clientCtx := sdk.NewClientCtx()
			response, err := chainio.NewProcessorClient(
				clientCtx, viper.GetString("contracts.processor"), sdk.DefaultBroadcastOptions(),
			).Config(context.Background())
			if err != nil {
				panic(err)
			}

			printJSON(response)
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "queue <priority>",
		Short: "To list the batches queued at the given priority, medium or high.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			clientCtx := sdk.NewClientCtx()
			response, err := chainio.NewProcessorClient(
				clientCtx, viper.GetString("contracts.processor"), sdk.DefaultBroadcastOptions(),
			).GetQueue(context.Background(), nil, nil, authorization.Priority(args[0]))
			if err != nil {
				panic(err)
			}

			printJSON(response)
		},
	})

	return command
}
