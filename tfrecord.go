package dsprep

// TFRecord object detection export functionality.

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
)

// ExportTFRecordOptions configure an ExportTFRecord run.
type ExportTFRecordOptions struct {
	Root      string   // Dataset root.
	OutDir    string   // Output directory. Defaults to <root>/annotations.
	Category  string   // Category directory name. Defaults to DefaultCategory.
	Splits    []string // Splits to export. Defaults to train, val and test.
	NumShards int      // Shard files per split. Defaults to 1.
}

// ExportTFRecordResult summarises an ExportTFRecord run.
type ExportTFRecordResult struct {
	Examples int
	Report   Report
}

// ExportTFRecord writes the requested splits as TFRecord files of
// tensorflow.Example records under the output directory, plus a
// label_map.pbtxt derived from labelmap.json.
//
// Label IDs come from the registry, so the class IDs match the COCO export.
func ExportTFRecord(opts ExportTFRecordOptions) (res *ExportTFRecordResult, err error) {
	// The Example feature conversion panics on unsupported value types.
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	applyExportDefaults(&opts.Category, &opts.OutDir, &opts.Splits, opts.Root)
	if opts.NumShards <= 0 {
		opts.NumShards = 1
	}

	if err := mkdirAll(opts.OutDir); err != nil {
		return nil, err
	}
	categoryRoot := filepath.Join(opts.Root, opts.Category)

	labelMap, err := LoadLabelMap(filepath.Join(categoryRoot, "labelmap.json"))
	if err != nil {
		return nil, err
	}
	resolver := NewLabelResolver(labelMap)

	if err := writeTFLabelMap(filepath.Join(opts.OutDir, "label_map.pbtxt"), labelMap); err != nil {
		return nil, err
	}

	result := &ExportTFRecordResult{}
	for _, split := range opts.Splits {
		outPath := filepath.Join(opts.OutDir, fmt.Sprintf("%s_%s.record", opts.Category, split))
		n, err := exportTFRecordSplit(categoryRoot, split, outPath, opts.NumShards, labelMap,
			resolver, &result.Report)
		if err != nil {
			return nil, err
		}
		result.Examples += n
		log.Printf("Generated %s: %d examples", outPath, n)
	}

	return result, nil
}

// exportTFRecordSplit streams one Example per exportable image of the split
// into numShards record files. Shard suffixes follow the -NNNNN-of-NNNNN
// convention when numShards > 1.
func exportTFRecordSplit(categoryRoot, split, outPath string, numShards int, labelMap LabelMap,
	resolver *LabelResolver, report *Report) (written int, err error) {

	stems, err := splitStems(categoryRoot, split)
	if err != nil {
		return 0, err
	}

	imagesDir := filepath.Join(categoryRoot, "images")
	csvDir := filepath.Join(categoryRoot, "csv")

	var shardFile *os.File
	defer func() {
		if shardFile != nil {
			closeWithErrCheck(shardFile, &err)
		}
	}()

	shardSize := int(math.Ceil(float64(len(stems)) / float64(numShards)))
	if shardSize == 0 {
		shardSize = 1
	}
	shardIdx := -1

	for i, st := range stems {
		// Open the next shard file when the current one is full.
		if i%shardSize == 0 {
			shardIdx++
			if shardFile != nil {
				if err := shardFile.Close(); err != nil {
					return written, err
				}
				shardFile = nil
			}
			shardPath := outPath
			if numShards > 1 {
				shardPath += fmt.Sprintf("-%05d-of-%05d", shardIdx, numShards)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return written, fmt.Errorf("failed to create shard at %q: %v", shardPath, err)
			}
			shardFile = f
		}

		features, ok := stemFeatures(categoryRoot, imagesDir, csvDir, st, labelMap, resolver, report)
		if !ok {
			continue
		}

		enc, err := proto.Marshal(example.New(features))
		if err != nil {
			return written, err
		}
		if err := tfrecord.Write(shardFile, enc); err != nil {
			return written, fmt.Errorf("failed to write example for %q: %v", st, err)
		}
		written++
	}

	return written, nil
}

// stemFeatures builds the object detection feature map for one image stem.
// Returns ok=false when the stem has no usable image.
func stemFeatures(categoryRoot, imagesDir, csvDir, st string, labelMap LabelMap,
	resolver *LabelResolver, report *Report) (map[string]interface{}, bool) {

	imgPath := findImage(imagesDir, st)
	if imgPath == "" {
		report.skip(st, "no image file")
		return nil, false
	}
	cfg, format, err := decodeImageConfig(imgPath)
	if err != nil {
		report.skip(imgPath, fmt.Sprintf("failed to decode: %v", err))
		return nil, false
	}
	imgData, err := readFile(imgPath)
	if err != nil {
		report.skip(imgPath, fmt.Sprintf("failed to read: %v", err))
		return nil, false
	}

	relPath, err := filepath.Rel(filepath.Dir(categoryRoot), imgPath)
	if err != nil {
		relPath = imgPath
	}
	relPath = filepath.ToSlash(relPath)

	boxes, err := ReadImageCSV(filepath.Join(csvDir, st+".csv"), report)
	if err != nil {
		report.skip(st, err.Error())
		return nil, false
	}

	xmins := make([]float32, 0, len(boxes))
	ymins := make([]float32, 0, len(boxes))
	xmaxs := make([]float32, 0, len(boxes))
	ymaxs := make([]float32, 0, len(boxes))
	classes := make([]string, 0, len(boxes))
	classIDs := make([]int64, 0, len(boxes))

	for _, box := range boxes {
		id, ok := resolver.Resolve(box.Label)
		if !ok {
			report.skip(fmt.Sprintf("%s label %q", st, box.Label), "no matching label ID")
			continue
		}
		name, ok := labelMap.NameByID(id)
		if !ok {
			report.skip(fmt.Sprintf("%s label %q", st, box.Label), "label ID not in labelmap")
			continue
		}

		xmins = append(xmins, float32(box.X)/float32(cfg.Width))
		ymins = append(ymins, float32(box.Y)/float32(cfg.Height))
		xmaxs = append(xmaxs, float32(box.X+box.Width)/float32(cfg.Width))
		ymaxs = append(ymaxs, float32(box.Y+box.Height)/float32(cfg.Height))
		classes = append(classes, name)
		classIDs = append(classIDs, int64(id))
	}

	f := make(map[string]interface{}, 16)
	f["image/height"] = cfg.Height
	f["image/width"] = cfg.Width
	f["image/filename"] = relPath
	f["image/source_id"] = st
	f["image/encoded"] = imgData
	f["image/format"] = format
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, true
}

// writeTFLabelMap writes the registry as a StringIntLabelMap text proto, the
// format the TensorFlow object detection API reads. The background entry is
// excluded.
func writeTFLabelMap(path string, labelMap LabelMap) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %v", path, err)
	}
	defer closeWithErrCheck(file, &err)

	for _, e := range labelMap.Categories() {
		if _, err := fmt.Fprintf(file, "item {\n  id: %d\n  name: %q\n}\n", e.LabelID, e.ObjectName); err != nil {
			return err
		}
	}

	return nil
}
