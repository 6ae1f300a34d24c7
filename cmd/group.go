package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/admingroup/internal/application/registry"
	"github.com/zjrosen/admingroup/internal/groups/domain"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Create, inspect and delete course groups",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group or group set with its batch_uid",
	Long: `Create a group or group set with its batch_uid.

Either --batch-uid or --source with --local-id must be given. The write is
rolled back when the key is already used under the configured uniqueness policy.

Example:
  admingroup group create --course 3 --title "Team A" --source sis --local-id team-a
  admingroup group create --course 3 --title "Projects" --batch-uid sis#projects --group-set`,
	Args: cobra.NoArgs,
	RunE: runGroupCreate,
}

var groupShowCmd = &cobra.Command{
	Use:   "show [ID]",
	Short: "Show one group by id or by batch_uid",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGroupShow,
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the groups of a course",
	Args:  cobra.NoArgs,
	RunE:  runGroupList,
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a group, or a group set with all of its members",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupDelete,
}

var (
	createCourse   string
	createTitle    string
	createBatchUID string
	createSource   string
	createLocalID  string
	createGroupSet bool
	createSet      string

	showBatchUID string

	listCourse string
	listKind   string
)

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupCreateCmd, groupShowCmd, groupListCmd, groupDeleteCmd)

	groupCreateCmd.Flags().StringVar(&createCourse, "course", "", "course id (required)")
	groupCreateCmd.Flags().StringVar(&createTitle, "title", "", "group title (required)")
	groupCreateCmd.Flags().StringVar(&createBatchUID, "batch-uid", "", "plain or composite key")
	groupCreateCmd.Flags().StringVar(&createSource, "source", "", "key source, used with --local-id")
	groupCreateCmd.Flags().StringVar(&createLocalID, "local-id", "", "key local id, used with --source")
	groupCreateCmd.Flags().BoolVar(&createGroupSet, "group-set", false, "create a group set")
	groupCreateCmd.Flags().StringVar(&createSet, "set", "", "group set id to join")
	_ = groupCreateCmd.MarkFlagRequired("course")
	_ = groupCreateCmd.MarkFlagRequired("title")
	groupCreateCmd.MarkFlagsMutuallyExclusive("batch-uid", "source")
	groupCreateCmd.MarkFlagsMutuallyExclusive("batch-uid", "local-id")
	groupCreateCmd.MarkFlagsRequiredTogether("source", "local-id")

	groupShowCmd.Flags().StringVar(&showBatchUID, "batch-uid", "", "look up by batch_uid instead of id")

	groupListCmd.Flags().StringVar(&listCourse, "course", "", "course id (required)")
	groupListCmd.Flags().StringVar(&listKind, "kind", "groups", "groups, sets or both")
	_ = groupListCmd.MarkFlagRequired("course")
}

func runGroupCreate(cmd *cobra.Command, _ []string) error {
	courseID, err := domain.ParseID(createCourse)
	if err != nil {
		return fmt.Errorf("--course: %w", err)
	}
	var setID domain.ID
	if createSet != "" {
		if setID, err = domain.ParseID(createSet); err != nil {
			return fmt.Errorf("--set: %w", err)
		}
	}

	return withRegistry(cmd, func(ctx context.Context, r *registry.Registry) error {
		g := domain.NewGroup(courseID, createTitle)
		g.SetIsGroupSet(createGroupSet)
		g.SetGroupSetID(setID)

		if createSource != "" {
			err = g.SetSourcedID(ctx, createSource, createLocalID)
		} else {
			err = g.SetBatchUID(ctx, createBatchUID)
		}
		if err != nil {
			return err
		}

		if err := r.Persist(ctx, g); err != nil {
			return err
		}
		return printGroup(ctx, cmd.OutOrStdout(), g)
	})
}

func runGroupShow(cmd *cobra.Command, args []string) error {
	if (len(args) == 1) == (showBatchUID != "") {
		return errors.New("give either an ID argument or --batch-uid")
	}

	return withRegistry(cmd, func(ctx context.Context, r *registry.Registry) error {
		var (
			g   *domain.Group
			err error
		)
		if showBatchUID != "" {
			g, err = r.LoadSingleByBatchUID(ctx, showBatchUID)
		} else {
			var id domain.ID
			if id, err = domain.ParseID(args[0]); err != nil {
				return err
			}
			g, err = r.LoadGroupByID(ctx, id)
		}
		if err != nil {
			return err
		}
		return printGroup(ctx, cmd.OutOrStdout(), g)
	})
}

func runGroupList(cmd *cobra.Command, _ []string) error {
	courseID, err := domain.ParseID(listCourse)
	if err != nil {
		return fmt.Errorf("--course: %w", err)
	}
	sel, err := domain.ParseSelector(listKind)
	if err != nil {
		return fmt.Errorf("--kind: %w", err)
	}

	return withRegistry(cmd, func(ctx context.Context, r *registry.Registry) error {
		groups, err := r.LoadByCourseID(ctx, courseID, sel)
		if err != nil {
			return err
		}
		for _, g := range groups {
			if err := printGroup(ctx, cmd.OutOrStdout(), g); err != nil {
				return err
			}
		}
		return nil
	})
}

func runGroupDelete(cmd *cobra.Command, args []string) error {
	id, err := domain.ParseID(args[0])
	if err != nil {
		return err
	}
	return withRegistry(cmd, func(ctx context.Context, r *registry.Registry) error {
		if err := r.DeleteGroupByID(ctx, id); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return nil
	})
}

// printGroup writes one tab-separated line: id, course, kind, batch_uid,
// set and title.
func printGroup(ctx context.Context, w io.Writer, g *domain.Group) error {
	uid, err := g.BatchUID(ctx)
	if err != nil {
		return err
	}
	kind := "group"
	if g.IsGroupSet() {
		kind = "set"
	}
	set := "-"
	if g.GroupSetID().IsPersisted() {
		set = g.GroupSetID().String()
	}
	_, err = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", g.ID(), g.CourseID(), kind, uid, set, g.Title())
	return err
}
