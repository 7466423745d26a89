// Converts PlantDoc-style plant disease datasets between the flat CSV layout,
// the standard per-image layout, and the COCO and TFRecord training formats.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/akamensky/argparse"

	"github.com/plantvision/dsprep"
)

func main() {
	parser := argparse.NewParser("dsprep", "PlantDoc dataset preparation and conversion")

	reorgCmd := parser.NewCommand("reorganize",
		"Reorganize the flat TRAIN/TEST layout into the standard per-image layout")
	reorgRoot := reorgCmd.String("r", "root", &argparse.Options{
		Help: "Dataset root directory", Default: "."})
	reorgCategory := reorgCmd.String("c", "category", &argparse.Options{
		Help: "Category directory name", Default: dsprep.DefaultCategory})
	reorgEncoding := reorgCmd.Selector("e", "image-enc", []string{"jpg", "png"}, &argparse.Options{
		Help: "Re-encode copied images with this encoding (default keeps the originals)"})
	reorgQuality := reorgCmd.Int("q", "jpeg-quality", &argparse.Options{
		Help: "The quality to use when encoding JPEGs [1, 100]", Default: 90})
	reorgResize := reorgCmd.Int("l", "resize-longer", &argparse.Options{
		Help: "Resize the longer image side to this length; box coordinates are rescaled " +
			"to match (zero keeps the original size)", Default: 0})

	updateCmd := parser.NewCommand("update-labels",
		"Rewrite per-image CSV labels from class names to numeric label IDs")
	updateRoot := updateCmd.String("r", "root", &argparse.Options{
		Help: "Dataset root directory", Default: "."})
	updateCategory := updateCmd.String("c", "category", &argparse.Options{
		Help: "Category directory name", Default: dsprep.DefaultCategory})

	cocoCmd := parser.NewCommand("export-coco",
		"Export the standard layout as COCO JSON annotation files")
	cocoRoot := cocoCmd.String("r", "root", &argparse.Options{
		Help: "Dataset root directory", Default: "."})
	cocoOut := cocoCmd.String("o", "out", &argparse.Options{
		Help: "Output directory (default <root>/annotations)"})
	cocoCategory := cocoCmd.String("c", "category", &argparse.Options{
		Help: "Category directory name", Default: dsprep.DefaultCategory})
	cocoSplits := cocoCmd.StringList("s", "splits", &argparse.Options{
		Help: "Dataset splits to generate {train, val, test}"})

	tfCmd := parser.NewCommand("export-tfrecord",
		"Export the standard layout as TFRecord files with a label_map.pbtxt")
	tfRoot := tfCmd.String("r", "root", &argparse.Options{
		Help: "Dataset root directory", Default: "."})
	tfOut := tfCmd.String("o", "out", &argparse.Options{
		Help: "Output directory (default <root>/annotations)"})
	tfCategory := tfCmd.String("c", "category", &argparse.Options{
		Help: "Category directory name", Default: dsprep.DefaultCategory})
	tfSplits := tfCmd.StringList("s", "splits", &argparse.Options{
		Help: "Dataset splits to generate {train, val, test}"})
	tfShards := tfCmd.Int("n", "num-shards", &argparse.Options{
		Help: "The number of shard files to create per split", Default: 1})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(1)
	}

	switch {
	case reorgCmd.Happened():
		result, err := dsprep.Reorganize(dsprep.ReorganizeOptions{
			Root:        *reorgRoot,
			Category:    *reorgCategory,
			Encoding:    *reorgEncoding,
			JPEGQuality: *reorgQuality,
			LongerSide:  *reorgResize,
		})
		if err != nil {
			log.Fatal("Reorganization failed: ", err)
		}
		log.Printf("Reorganization complete: %d classes, %d images, %d annotation files"+
			" (train=%d val=%d test=%d, %d skipped)",
			result.Classes, result.ImagesCopied, result.CSVFiles,
			result.TrainSize, result.ValSize, result.TestSize, len(result.Report.Skipped))

	case updateCmd.Happened():
		result, err := dsprep.UpdateLabels(dsprep.UpdateLabelsOptions{
			Root:     *updateRoot,
			Category: *updateCategory,
		})
		if err != nil {
			log.Fatal("Label update failed: ", err)
		}
		log.Printf("Label update complete: %d labels resolved in %d files, %d skipped",
			result.Report.Accepted, result.FilesUpdated, len(result.Report.Skipped))

	case cocoCmd.Happened():
		validateSplits(parser, *cocoSplits)
		result, err := dsprep.ExportCOCO(dsprep.ExportCOCOOptions{
			Root:     *cocoRoot,
			OutDir:   *cocoOut,
			Category: *cocoCategory,
			Splits:   *cocoSplits,
		})
		if err != nil {
			log.Fatal("COCO export failed: ", err)
		}
		log.Printf("COCO export complete: %d images, %d annotations, %d skipped",
			result.Images, result.Annotations, len(result.Report.Skipped))

	case tfCmd.Happened():
		validateSplits(parser, *tfSplits)
		result, err := dsprep.ExportTFRecord(dsprep.ExportTFRecordOptions{
			Root:      *tfRoot,
			OutDir:    *tfOut,
			Category:  *tfCategory,
			Splits:    *tfSplits,
			NumShards: *tfShards,
		})
		if err != nil {
			log.Fatal("TFRecord export failed: ", err)
		}
		log.Printf("TFRecord export complete: %d examples, %d skipped",
			result.Examples, len(result.Report.Skipped))
	}
}

// validateSplits rejects split names the exporters do not know.
func validateSplits(parser *argparse.Parser, splits []string) {
	for _, s := range splits {
		switch s {
		case dsprep.SplitTrain, dsprep.SplitVal, dsprep.SplitTest:
		default:
			fmt.Fprint(os.Stderr, parser.Usage(fmt.Errorf("unknown split %q", s)))
			os.Exit(1)
		}
	}
}
