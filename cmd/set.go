package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/admingroup/internal/application/registry"
	"github.com/zjrosen/admingroup/internal/groups/domain"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Manage group set membership",
}

var setAddMemberCmd = &cobra.Command{
	Use:   "add-member",
	Short: "Move a group into a group set",
	Args:  cobra.NoArgs,
	RunE:  runSetAddMember,
}

var (
	memberSet   string
	memberGroup string
)

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.AddCommand(setAddMemberCmd)

	setAddMemberCmd.Flags().StringVar(&memberSet, "set", "", "group set id (required)")
	setAddMemberCmd.Flags().StringVar(&memberGroup, "group", "", "group id (required)")
	_ = setAddMemberCmd.MarkFlagRequired("set")
	_ = setAddMemberCmd.MarkFlagRequired("group")
}

func runSetAddMember(cmd *cobra.Command, _ []string) error {
	setID, err := domain.ParseID(memberSet)
	if err != nil {
		return fmt.Errorf("--set: %w", err)
	}
	groupID, err := domain.ParseID(memberGroup)
	if err != nil {
		return fmt.Errorf("--group: %w", err)
	}

	return withRegistry(cmd, func(ctx context.Context, r *registry.Registry) error {
		changed, err := r.AddGroupToGroupSet(ctx, groupID, setID)
		if err != nil {
			return err
		}
		if !changed {
			return &domain.GroupNotFoundError{ID: groupID}
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", groupID, setID)
		return nil
	})
}
