package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pancakeswap-go/internal/pancakeswap"
)

// allowance <token>: show what the router may spend.
func allowanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allowance <token>",
		Short: "Show the router allowance for a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			token, err := pancakeswap.ParseToken(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			amount, err := s.client.Allowance(ctx, token)
			if err != nil {
				return err
			}
			approved, err := s.client.IsApproved(ctx, token)
			if err != nil {
				return err
			}
			fmt.Printf("allowance %s (approved: %t)\n", amount, approved)
			return nil
		},
	}
}

// approve <token>: grant the router max allowance.
func approveCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "approve <token>",
		Short: "Give the router max approval of a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			token, err := pancakeswap.ParseToken(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if !force {
				ok, err := s.client.IsApproved(ctx, token)
				if err != nil {
					return err
				}
				if ok {
					fmt.Println("already approved")
					return nil
				}
			}
			receipt, err := s.client.Approve(ctx, token, nil)
			if err != nil {
				return err
			}
			fmt.Printf("approved in block %s: %s\n", receipt.BlockNumber, receipt.TxHash.Hex())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "send the approval even if one is already in place")
	return cmd
}
