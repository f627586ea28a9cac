// Package main is the entry point for the chirpconv CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chirptools/chirpconv/pkg/api"
	"github.com/chirptools/chirpconv/pkg/chirp"
	"github.com/chirptools/chirpconv/pkg/formats/midifile"
	"github.com/chirptools/chirpconv/pkg/formats/ml64"
	"github.com/chirptools/chirpconv/pkg/mchirp"
	"github.com/chirptools/chirpconv/pkg/transform"
	"github.com/chirptools/chirpconv/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile string
	gridName   string
	policyName string
	formatName string
	semitones  int
	serverPort int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chirpconv",
	Short: "Convert and clean up music between MIDI and chiptune formats",
	Long: `chirpconv reads standard MIDI files into an editable song
representation, cleans them up (quantization, polyphony removal), and
writes MIDI or ML64 chiptune text back out.

Examples:
  chirpconv convert song.mid -o song.ml64 --format ml64
  chirpconv quantize song.mid --grid 16
  chirpconv mono song.mid --policy highest
  chirpconv stats song.mid
  chirpconv tui
  chirpconv serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.mid>",
	Short: "Run the full pipeline: quantize, remove polyphony, export",
	Long:  `Quantizes the input, removes polyphony with the chosen policy, and writes the result in the chosen output format.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var quantizeCmd = &cobra.Command{
	Use:   "quantize <input.mid>",
	Short: "Quantize a MIDI file to a note-value grid",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuantize,
}

var monoCmd = &cobra.Command{
	Use:   "mono <input.mid>",
	Short: "Remove polyphony from a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMono,
}

var transposeCmd = &cobra.Command{
	Use:   "transpose <input.mid>",
	Short: "Transpose a MIDI file by a number of semitones",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranspose,
}

var statsCmd = &cobra.Command{
	Use:   "stats <input.mid>",
	Short: "Print note statistics for a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	convertCmd.Flags().StringVarP(&gridName, "grid", "g", "16", "Quantization grid as a note value (e.g. 8, 16, 16-3) or 'auto'")
	convertCmd.Flags().StringVarP(&policyName, "policy", "p", "highest", "Polyphony policy (highest, lowest, first, last)")
	convertCmd.Flags().StringVarP(&formatName, "format", "f", "midi", "Output format (midi, ml64)")

	// quantize command
	quantizeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	quantizeCmd.Flags().StringVarP(&gridName, "grid", "g", "16", "Quantization grid as a note value or 'auto'")

	// mono command
	monoCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	monoCmd.Flags().StringVarP(&policyName, "policy", "p", "highest", "Polyphony policy (highest, lowest, first, last)")

	// transpose command
	transposeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	transposeCmd.Flags().IntVarP(&semitones, "semitones", "n", 0, "Semitones to transpose by (may be negative)")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(quantizeCmd)
	rootCmd.AddCommand(monoCmd)
	rootCmd.AddCommand(transposeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

func loadSong(input string) (*chirp.Song, error) {
	return midifile.New().ImportChirpFile(input)
}

func quantizeSong(song *chirp.Song) error {
	if strings.EqualFold(gridName, "auto") {
		qn, qd, err := song.EstimateQuantization()
		if err != nil {
			return err
		}
		fmt.Printf("Estimated grids: notes=%d durations=%d (ticks)\n", qn, qd)
		_, err = song.Quantize(qn, qd)
		return err
	}
	_, err := song.QuantizeToNoteName(gridName)
	return err
}

func writeMIDI(song *chirp.Song, output string) error {
	return midifile.New().ExportChirpFile(song, output)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	song, err := loadSong(input)
	if err != nil {
		return err
	}
	if err := quantizeSong(song); err != nil {
		return err
	}

	policy, err := chirp.ParsePolicy(policyName)
	if err != nil {
		return err
	}
	_, truncated, dropped, err := song.RemovePolyphony(policy)
	if err != nil {
		return err
	}
	if truncated+dropped > 0 {
		fmt.Printf("Polyphony removed: %d truncated, %d dropped\n", truncated, dropped)
	}

	switch strings.ToLower(formatName) {
	case "midi", "mid":
		output := getOutputPath(input, ".clean.mid")
		if err := writeMIDI(song, output); err != nil {
			return err
		}
		fmt.Printf("Converted %s -> %s\n", input, output)
	case "ml64":
		measured, err := mchirp.Measurize(song, nil)
		if err != nil {
			return err
		}
		result, err := ml64.New().ExportMChirp(measured)
		if err != nil {
			return err
		}
		output := getOutputPath(input, ".ml64")
		if err := os.WriteFile(output, result, 0644); err != nil {
			return err
		}
		fmt.Printf("Converted %s -> %s\n", input, output)
	default:
		return fmt.Errorf("unknown output format %q", formatName)
	}
	return nil
}

func runQuantize(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".quantized.mid")

	song, err := loadSong(input)
	if err != nil {
		return err
	}
	if err := quantizeSong(song); err != nil {
		return err
	}
	if err := writeMIDI(song, output); err != nil {
		return err
	}

	fmt.Printf("Quantized %s -> %s\n", input, output)
	return nil
}

func runMono(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".mono.mid")

	song, err := loadSong(input)
	if err != nil {
		return err
	}
	policy, err := chirp.ParsePolicy(policyName)
	if err != nil {
		return err
	}
	_, truncated, dropped, err := song.RemovePolyphony(policy)
	if err != nil {
		return err
	}
	if err := writeMIDI(song, output); err != nil {
		return err
	}

	fmt.Printf("Removed polyphony (%s): %d truncated, %d dropped\n", policy, truncated, dropped)
	fmt.Printf("Converted %s -> %s\n", input, output)
	return nil
}

func runTranspose(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".transposed.mid")

	song, err := loadSong(input)
	if err != nil {
		return err
	}
	song.Transpose(semitones)
	if err := writeMIDI(song, output); err != nil {
		return err
	}

	fmt.Printf("Transposed %s by %d semitones -> %s\n", input, semitones, output)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	input := args[0]

	song, err := loadSong(input)
	if err != nil {
		return err
	}
	_, stats, err := transform.Apply(song, transform.Identity[*chirp.Song])
	if err != nil {
		return err
	}

	fmt.Print(stats.Render())
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
