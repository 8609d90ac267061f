package cli

import (
	"fmt"

	"github.com/okian/weris/internal/domain/classifier"
	"github.com/spf13/cobra"
)

func newModelCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect or rebuild the classifier model",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted model, training it first if absent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := classifier.NewStore(st.cfg.ModelPath, classifier.WithLogger(st.log.Named("classifier")))
			m, err := store.Get(cmd.Context())
			if err != nil {
				return err
			}
			return printModel(cmd, store.Path(), m)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "train",
		Short: "Retrain the bootstrap model and overwrite the blob",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := classifier.NewStore(st.cfg.ModelPath, classifier.WithLogger(st.log.Named("classifier")))
			m, err := store.Retrain(cmd.Context())
			if err != nil {
				return err
			}
			return printModel(cmd, store.Path(), m)
		},
	})

	return cmd
}

func printModel(cmd *cobra.Command, path string, m *classifier.Model) error {
	data, err := classifier.Encode(m)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "# %s (k=%d, %d samples)\n", path, m.K, len(m.Labels))
	_, err = w.Write(data)
	return err
}
