package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/admingroup/internal/application/registry"
	"github.com/zjrosen/admingroup/internal/groups/domain"
)

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Query batch_uid keys",
}

var codeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys",
	Long: `List stored keys. With no filter every key is listed.

Example:
  admingroup code list --source sis               # every sis#... key
  admingroup code list --source sis --local-id 7  # exactly sis#7
  admingroup code list --set 12                   # keys of the set's members`,
	Args: cobra.NoArgs,
	RunE: runCodeList,
}

var codeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether a batch_uid is unique",
	Args:  cobra.NoArgs,
	RunE:  runCodeCheck,
}

var (
	codeGroup    string
	codeBatchUID string
	codeSource   string
	codeLocalID  string
	codeSet      string

	checkUID     string
	checkCourse  string
	checkExclude string
)

func init() {
	rootCmd.AddCommand(codeCmd)
	codeCmd.AddCommand(codeListCmd, codeCheckCmd)

	codeListCmd.Flags().StringVar(&codeGroup, "group", "", "keys of one group")
	codeListCmd.Flags().StringVar(&codeBatchUID, "batch-uid", "", "keys equal to this value")
	codeListCmd.Flags().StringVar(&codeSource, "source", "", "keys with this source")
	codeListCmd.Flags().StringVar(&codeLocalID, "local-id", "", "narrow --source to one local id")
	codeListCmd.Flags().StringVar(&codeSet, "set", "", "keys of a group set's members")
	codeListCmd.MarkFlagsMutuallyExclusive("group", "batch-uid", "source", "set")

	codeCheckCmd.Flags().StringVar(&checkUID, "uid", "", "batch_uid to check (required)")
	codeCheckCmd.Flags().StringVar(&checkCourse, "course", "", "restrict the check to one course")
	codeCheckCmd.Flags().StringVar(&checkExclude, "exclude", "", "group whose own keys are ignored")
	_ = codeCheckCmd.MarkFlagRequired("uid")
}

func runCodeList(cmd *cobra.Command, _ []string) error {
	if codeLocalID != "" && codeSource == "" {
		return errors.New("--local-id requires --source")
	}

	return withRegistry(cmd, func(ctx context.Context, r *registry.Registry) error {
		var (
			codes []*domain.GroupCode
			err   error
		)
		switch {
		case codeGroup != "":
			var id domain.ID
			if id, err = domain.ParseID(codeGroup); err != nil {
				return fmt.Errorf("--group: %w", err)
			}
			codes, err = r.Codes().LoadByGroupID(ctx, id)
		case codeSet != "":
			var id domain.ID
			if id, err = domain.ParseID(codeSet); err != nil {
				return fmt.Errorf("--set: %w", err)
			}
			codes, err = r.Codes().LoadByGroupSetID(ctx, id)
		case codeBatchUID != "":
			codes, err = r.Codes().LoadByBatchUID(ctx, codeBatchUID)
		default:
			codes, err = r.Codes().LoadBySourcedID(ctx, codeSource, codeLocalID)
		}
		if err != nil {
			return err
		}

		for _, c := range codes {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", c.ID(), c.GroupID(), c.CourseID(), c.BatchUID())
		}
		return nil
	})
}

func runCodeCheck(cmd *cobra.Command, _ []string) error {
	exclude := domain.UnsetID
	if checkExclude != "" {
		id, err := domain.ParseID(checkExclude)
		if err != nil {
			return fmt.Errorf("--exclude: %w", err)
		}
		exclude = id
	}
	var courseID domain.ID
	if checkCourse != "" {
		id, err := domain.ParseID(checkCourse)
		if err != nil {
			return fmt.Errorf("--course: %w", err)
		}
		courseID = id
	}

	return withRegistry(cmd, func(ctx context.Context, r *registry.Registry) error {
		var (
			unique bool
			err    error
		)
		if courseID.IsPersisted() {
			unique, err = r.Uniqueness().IsUniqueInScope(ctx, courseID, checkUID, exclude)
		} else {
			unique, err = r.Uniqueness().IsUnique(ctx, checkUID, exclude)
		}
		if err != nil {
			return err
		}

		result := "duplicate"
		if unique {
			result = "unique"
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	})
}
