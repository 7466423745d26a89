package dsprep

// Dataset reorganisation from the flat PlantDoc layout into the standard
// per-image layout.

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// DefaultCategory is the category directory name used when none is given.
const DefaultCategory = "plant_diseases"

// ReorganizeOptions configure a Reorganize run.
type ReorganizeOptions struct {
	Root        string // Dataset root with train_labels.csv, test_labels.csv, TRAIN/ and TEST/.
	Category    string // Category directory name. Defaults to DefaultCategory.
	Encoding    string // Re-encode copied images as "jpg" or "png". Empty keeps the originals.
	JPEGQuality int    // Quality for JPEG re-encoding. Defaults to 90.
	LongerSide  int    // Resize the longer image side to this length. Zero keeps the size.
}

// ReorganizeResult summarises a Reorganize run.
type ReorganizeResult struct {
	Classes      int
	ImagesCopied int
	CSVFiles     int
	TrainSize    int
	ValSize      int
	TestSize     int
	Report       Report
}

// Reorganize converts the flat (train_labels.csv, test_labels.csv, TRAIN/,
// TEST/) layout under opts.Root into the standard layout at
// <root>/<category>/{images,csv,sets,labelmap.json}.
//
// Individual malformed rows and unresolvable images are skipped and recorded
// in the result's report; only missing or unreadable top-level inputs fail.
func Reorganize(opts ReorganizeOptions) (*ReorganizeResult, error) {
	if opts.Category == "" {
		opts.Category = DefaultCategory
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 90
	}

	trainCSV := filepath.Join(opts.Root, "train_labels.csv")
	testCSV := filepath.Join(opts.Root, "test_labels.csv")
	categoryRoot := filepath.Join(opts.Root, opts.Category)
	imagesDir := filepath.Join(categoryRoot, "images")
	csvDir := filepath.Join(categoryRoot, "csv")
	setsDir := filepath.Join(categoryRoot, "sets")

	for _, dir := range []string{imagesDir, csvDir, setsDir} {
		if err := mkdirAll(dir); err != nil {
			return nil, err
		}
	}

	result := &ReorganizeResult{}

	// Parse both flat CSVs once. The records feed the class registry, the
	// per-image CSVs and the split membership.
	trainRecords, err := ReadFlatCSV(trainCSV, &result.Report)
	if err != nil {
		return nil, err
	}
	testRecords, err := ReadFlatCSV(testCSV, &result.Report)
	if err != nil {
		return nil, err
	}

	classes := classNames(trainRecords, testRecords)
	result.Classes = len(classes)
	log.Printf("Found %d classes", len(classes))

	labelMap := NewLabelMap(classes)
	if err := WriteLabelMap(filepath.Join(categoryRoot, "labelmap.json"), labelMap); err != nil {
		return nil, err
	}

	// Unify the TRAIN and TEST images into images/. The first writer wins on
	// name collisions. Scale factors are recorded per stem when resizing.
	scales := make(map[string]float64)
	for _, srcDir := range []string{filepath.Join(opts.Root, "TRAIN"), filepath.Join(opts.Root, "TEST")} {
		copied, err := copyImages(srcDir, imagesDir, opts, scales, &result.Report)
		if err != nil {
			return nil, err
		}
		result.ImagesCopied += copied
	}
	log.Printf("Copied %d images", result.ImagesCopied)

	// One annotation CSV per image stem, labels still free text at this stage.
	trainStems, trainFiles, err := writePerImageCSVs(trainRecords, imagesDir, csvDir, scales, &result.Report)
	if err != nil {
		return nil, err
	}
	testStems, testFiles, err := writePerImageCSVs(testRecords, imagesDir, csvDir, scales, &result.Report)
	if err != nil {
		return nil, err
	}
	result.CSVFiles = trainFiles + testFiles
	log.Printf("Created %d annotation CSV files", result.CSVFiles)

	// Split membership. val is carved from the front 20% of the sorted train
	// stems; train keeps the remainder; all covers the original train + test.
	trainOnly, val := CarveValSplit(trainStems)
	splits := map[string][]string{
		SplitTrain:    trainOnly,
		SplitVal:      val,
		SplitTest:     testStems,
		SplitTrainVal: mergeStems(trainOnly, val),
		SplitAll:      mergeStems(trainStems, testStems),
	}
	for name, stems := range splits {
		if err := WriteSplit(filepath.Join(setsDir, name+".txt"), stems); err != nil {
			return nil, err
		}
	}
	result.TrainSize = len(trainOnly)
	result.ValSize = len(val)
	result.TestSize = len(sortedStems(testStems))
	log.Printf("Split sizes: train=%d val=%d test=%d", result.TrainSize, result.ValSize, result.TestSize)

	return result, nil
}

// copyImages copies every image file found directly in srcDir into dstDir.
// Destination files that already exist are left untouched.
//
// When opts request re-encoding or resizing, images are decoded and saved
// through the resampling pipeline instead of byte-copied, and the applied
// scale factor is recorded in scales by stem.
func copyImages(srcDir, dstDir string, opts ReorganizeOptions, scales map[string]float64,
	report *Report) (int, error) {

	files, err := filesByExtInDir(srcDir, "")
	if err != nil {
		return 0, err
	}

	process := opts.Encoding != "" || opts.LongerSide > 0
	outExt := ""
	switch opts.Encoding {
	case "":
	case "jpg", "jpeg":
		outExt = ".jpg"
	case "png":
		outExt = ".png"
	default:
		return 0, fmt.Errorf("unsupported output encoding %q", opts.Encoding)
	}

	copied := 0
	for _, src := range files {
		if !hasImageExt(src) {
			continue
		}
		st := stem(src)

		// An existing destination image is kept, but a previous run may have
		// resized it. Recover the applied factor from its dimensions so the
		// rewritten annotation CSVs stay in sync with the file on disk.
		existing := filepath.Join(dstDir, filepath.Base(src))
		if process {
			existing = findImage(dstDir, st)
		} else if !fileExists(existing) {
			existing = ""
		}
		if existing != "" {
			scale, err := imageScale(src, existing)
			if err != nil {
				report.skip(existing, fmt.Sprintf("failed to decode: %v", err))
				continue
			}
			if scale != 1 {
				scales[st] = scale
			}
			continue
		}

		if !process {
			dst := filepath.Join(dstDir, filepath.Base(src))
			if err := copyFile(src, dst); err != nil {
				return copied, err
			}
			copied++
			continue
		}

		// Decode, optionally resize, and re-encode.
		img, err := imaging.Open(src)
		if err != nil {
			report.skip(src, fmt.Sprintf("failed to decode: %v", err))
			continue
		}
		scale := 1.0
		if opts.LongerSide > 0 {
			img, scale = resizeLonger(img, opts.LongerSide)
		}
		ext := outExt
		if ext == "" {
			ext = filepath.Ext(src)
		}
		dst := filepath.Join(dstDir, st+ext)
		if err := imaging.Save(img, dst, imaging.JPEGQuality(opts.JPEGQuality)); err != nil {
			return copied, fmt.Errorf("cannot write image %q: %v", dst, err)
		}
		if scale != 1 {
			scales[st] = scale
		}
		copied++
	}

	return copied, nil
}

// writePerImageCSVs groups the flat records by filename and writes one
// annotation CSV per resolvable image stem. Returns the stems whose image was
// found and the number of CSV files written.
func writePerImageCSVs(records []FlatRecord, imagesDir, csvDir string, scales map[string]float64,
	report *Report) (stems []string, written int, err error) {

	order := make([]string, 0, len(records))
	grouped := make(map[string][]FlatRecord)
	for _, rec := range records {
		if _, seen := grouped[rec.Filename]; !seen {
			order = append(order, rec.Filename)
		}
		grouped[rec.Filename] = append(grouped[rec.Filename], rec)
	}

	for _, filename := range order {
		st := stem(filename)
		if findImage(imagesDir, st) == "" && !fileExists(filepath.Join(imagesDir, filename)) {
			report.skip(filename, "image not found")
			continue
		}

		group := grouped[filename]
		boxes := make([]BoundingBox, 0, len(group))
		for _, rec := range group {
			box := rec.Box()
			if scale, ok := scales[st]; ok {
				box = box.Scale(scale)
			}
			boxes = append(boxes, box)
		}

		if err := WriteImageCSV(filepath.Join(csvDir, st+".csv"), boxes); err != nil {
			return nil, written, err
		}
		written++
		stems = append(stems, st)
	}

	return stems, written, nil
}
