package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCmd(flags *globalFlags) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a snapshot of the current state to the blob store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if list {
				backups, err := rt.svc.ListBackups(cmd.Context(), rt.blobs)
				if err != nil {
					return err
				}
				for _, b := range backups {
					fmt.Fprintf(out, "%s\t%d\t%s\n", b.Key, b.Size, b.LastModified.Format("2006-01-02T15:04:05Z07:00"))
				}
				return nil
			}
			info, err := rt.svc.BackupSnapshot(cmd.Context(), rt.blobs)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, info.Key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list stored snapshots instead of writing one")
	return cmd
}

func newRestoreCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the current state with a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.svc.RestoreSnapshot(cmd.Context(), rt.blobs, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, v := range res.Violations {
				fmt.Fprintf(out, "warning: %s: %s\n", v.Rule, v.Message)
			}
			fmt.Fprintf(out, "restored %s\n", args[0])
			return nil
		},
	}
}
