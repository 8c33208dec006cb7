package commands

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oguzkse/streamseek/internal/playlist"
)

func NewPlaylistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Generate an M3U playlist against the live base URL",
		Long: `Discover the currently live base URL (or take one via --base-url) and
write the configured channel list as an M3U playlist pointing at it.`,
		Args: cobra.NoArgs,
		RunE: runPlaylist,
	}

	cmd.Flags().String("base-url", "", "Skip discovery and use this base URL")
	cmd.Flags().StringP("output", "o", "", "Output file (overrides playlist.output_file)")
	cmd.Flags().Bool("stdout", false, "Print the playlist instead of writing the file")

	_ = viper.BindPFlag("playlist.base_url", cmd.Flags().Lookup("base-url"))
	_ = viper.BindPFlag("playlist.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("playlist.stdout", cmd.Flags().Lookup("stdout"))

	return cmd
}

func runPlaylist(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	if out := viper.GetString("playlist.output"); out != "" {
		cfg.Playlist.OutputFile = out
	}
	if len(cfg.Playlist.Channels) == 0 {
		return fmt.Errorf("no channels configured; add playlist.channels entries to the config file")
	}

	baseURL := viper.GetString("playlist.base_url")
	if baseURL == "" {
		eng, err := buildEngine(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize discovery engine: %w", err)
		}
		defer eng.Close()

		ctx, cancel := signalContext()
		defer cancel()
		baseURL = eng.orchestrator.Discover(ctx)
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return fmt.Errorf("base URL %q must include a scheme", baseURL)
	}

	gen := playlist.NewGenerator(cfg.Playlist, logrus.StandardLogger())
	if viper.GetBool("playlist.stdout") {
		fmt.Print(gen.Render(baseURL))
		return nil
	}
	return gen.Write(baseURL)
}
