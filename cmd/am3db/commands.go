package main

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dreamware/am3db/internal/catalog"
	"github.com/dreamware/am3db/internal/generate"
	"github.com/dreamware/am3db/internal/reaction"
	"github.com/dreamware/am3db/internal/review"
	"github.com/dreamware/am3db/internal/toolkit"
	"github.com/dreamware/am3db/internal/user"
)

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage reviewers",
	}

	var status string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Register or update a reviewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := user.New(args[0], status)
			if err != nil {
				return err
			}
			if err := a.db.Users().Save(u); err != nil {
				return err
			}
			a.printf(cmd, "%s: %s\n", u.Name, u.Status)
			return nil
		},
	}
	add.Flags().StringVar(&status, "status", "student", "student, contributor, developer or admin")

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a reviewer's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.db.Users().Lookup(args[0])
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("unknown user %q", args[0])
			}
			a.printf(cmd, "%s: %s\n", u.Name, u.Status)
			return nil
		},
	}

	cmd.AddCommand(add, show)
	return cmd
}

func (a *app) shardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shards FAMILY",
		Short: "List shard files whose name contains FAMILY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.db.FamilyFiles(args[0])
			if err != nil {
				return err
			}
			names := make([]string, 0, len(files))
			for name := range files {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				a.printf(cmd, "%s\n", name)
			}
			return nil
		},
	}
}

func (a *app) nextIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-index FAMILY",
		Short: "Print the index the next saved reaction of FAMILY would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := a.db.Allocator().NextIndex(args[0])
			if err != nil {
				return err
			}
			a.printf(cmd, "%d\n", next)
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Save every reaction of a static toolkit file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			static, err := toolkit.LoadStatic(args[0])
			if err != nil {
				return err
			}
			return a.saveEntries(cmd, static, static.Entries)
		},
	}
}

func (a *app) generateCmd() *cobra.Command {
	var (
		num  int
		mode string
		seed int64
		save bool
	)
	cmd := &cobra.Command{
		Use:   "generate FILE FAMILY",
		Short: "Pick training reactions of FAMILY from a static toolkit file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			static, err := toolkit.LoadStatic(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			entries, err := generate.FamilyReactions(static, args[1], num, generate.ParseMode(mode),
				rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}
			if save {
				return a.saveEntries(cmd, static, entries)
			}
			for _, e := range entries {
				a.printf(cmd, "%s\n", e.Description().Label)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&num, "num", 0, "number of reactions, 0 for all")
	cmd.Flags().StringVar(&mode, "mode", string(generate.ModeTraining), "generation mode")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for sampling")
	cmd.Flags().BoolVar(&save, "save", false, "save the reactions instead of listing them")
	return cmd
}

func (a *app) saveEntries(cmd *cobra.Command, static *toolkit.Static, entries []*toolkit.Entry) error {
	tk := reaction.Toolkit{Classifier: static, Labeler: static, Mapper: static}
	for _, e := range entries {
		r := reaction.New(e.Description(), tk, a.logger)
		if err := a.db.Save(r); err != nil {
			return fmt.Errorf("save %s: %w", r.Label, err)
		}
		if index, ok := r.Index(); ok {
			a.printf(cmd, "%s #%d\t%s\n", r.Family, index, r.Label)
		}
	}
	return nil
}

func familyIndex(args []string) (string, int, error) {
	index, err := strconv.Atoi(args[1])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("invalid index %q", args[1])
	}
	return args[0], index, nil
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show FAMILY INDEX",
		Short: "Print a stored record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, index, err := familyIndex(args)
			if err != nil {
				return err
			}
			rec, err := a.db.Load(family, index)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(map[int]interface{}{index: rec})
			if err != nil {
				return err
			}
			a.printf(cmd, "# %s: %s\n%s", family, review.StateOf(&rec), out)
			return nil
		},
	}
}

func (a *app) approveCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "approve FAMILY INDEX",
		Short: "Approve a stored record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, index, err := familyIndex(args)
			if err != nil {
				return err
			}
			changed, err := a.db.Approve(family, index, name)
			if err != nil {
				return err
			}
			a.reportReview(cmd, family, index, changed)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "user", "", "reviewer name")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *app) rejectCmd() *cobra.Command {
	var name, reason string
	cmd := &cobra.Command{
		Use:   "reject FAMILY INDEX",
		Short: "Reject a stored record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, index, err := familyIndex(args)
			if err != nil {
				return err
			}
			changed, err := a.db.Reject(family, index, name, reason)
			if err != nil {
				return err
			}
			a.reportReview(cmd, family, index, changed)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "user", "", "reviewer name")
	cmd.Flags().StringVar(&reason, "reason", "", "why the record is wrong")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *app) reportReview(cmd *cobra.Command, family string, index int, changed bool) {
	if !changed {
		a.printf(cmd, "%s #%d unchanged\n", family, index)
		return
	}
	rec, err := a.db.Load(family, index)
	if err != nil {
		a.printf(cmd, "%s #%d saved\n", family, index)
		return
	}
	a.printf(cmd, "%s #%d %s\n", family, index, review.StateOf(&rec))
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise families, shards and review states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Build(a.db.Store(), a.logger)
			if err != nil {
				return err
			}
			for _, family := range cat.Families() {
				s := cat.Family(family)
				a.printf(cmd, "%s\tshards=%d records=%d unreviewed=%d approved=%d rejected=%d next=%d\n",
					family, len(s.Shards), s.Records, s.Unreviewed, s.Approved, s.Rejected, s.NextIndex)
			}
			t := cat.Totals()
			a.printf(cmd, "total\trecords=%d unreviewed=%d approved=%d rejected=%d\n",
				t.Records, t.Unreviewed, t.Approved, t.Rejected)

			st, err := a.db.Store().Stats()
			if err != nil {
				return err
			}
			a.printf(cmd, "files\t%d (%d bytes)\n", st.Keys, st.Bytes)
			return nil
		},
	}
}
