package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/output"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user qualification profiles",
}

var profileSetCmd = &cobra.Command{
	Use:   "set USER_ID",
	Short: "Replace a user's qualifications",
	Long: `Replace every qualification stored for a user.

Each --qualification takes "INDUSTRY:COURSE,COURSE". Either side may be
empty but not both.

Examples:
  bursary profile set thandi -q "Engineering:Mechanical Engineering,Mathematics"
  bursary profile set sipho -q "Health & Medical Sciences:" -q ":Accounting"`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileSet,
}

var profileShowCmd = &cobra.Command{
	Use:   "show USER_ID",
	Short: "Show a user's qualifications",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete USER_ID",
	Short: "Delete a user's qualifications and stored matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileQualifications []string

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)

	profileSetCmd.Flags().StringArrayVarP(&profileQualifications, "qualification", "q", nil,
		`Qualification as "INDUSTRY:COURSE,COURSE" (repeatable)`)
	_ = profileSetCmd.MarkFlagRequired("qualification")
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	quals, err := parseQualifications(profileQualifications)
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	profile := &database.UserProfile{UserID: strings.TrimSpace(args[0]), Qualifications: quals}
	if err := a.store.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	saved, err := a.store.GetProfile(ctx, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to reload profile: %w", err)
	}
	return output.Output(outputFmt, saved)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	profile, err := a.store.GetProfile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if len(profile.Qualifications) == 0 {
		return fmt.Errorf("no profile stored for %q", args[0])
	}
	return output.Output(outputFmt, profile)
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.DeleteUser(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	fmt.Printf("Deleted profile and matches for %s\n", args[0])
	return nil
}

// parseQualifications parses "INDUSTRY:COURSE,COURSE" flag values
func parseQualifications(values []string) ([]database.Qualification, error) {
	out := make([]database.Qualification, 0, len(values))
	for _, v := range values {
		industry, courses, _ := strings.Cut(v, ":")

		q := database.Qualification{Industry: strings.TrimSpace(industry), Courses: []string{}}
		for _, c := range strings.Split(courses, ",") {
			if c = strings.TrimSpace(c); c != "" {
				q.Courses = append(q.Courses, c)
			}
		}
		if q.Industry == "" && len(q.Courses) == 0 {
			return nil, fmt.Errorf("qualification %q has neither an industry nor courses", v)
		}
		out = append(out, q)
	}
	return out, nil
}
