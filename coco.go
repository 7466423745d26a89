package dsprep

// COCO JSON export functionality.

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"path/filepath"
)

// supercategoryName is the fixed supercategory for all exported categories.
const supercategoryName = "plant_disease"

// datasetURL points at the dataset the default category is built from.
const datasetURL = "https://github.com/pratikkayal/PlantDoc-Dataset"

// COCOInfo is the info block of a COCO document.
type COCOInfo struct {
	Year        int    `json:"year"`
	Version     string `json:"version"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// COCOImage is a single image entry of a COCO document.
type COCOImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// COCOAnnotation is a single object annotation of a COCO document.
type COCOAnnotation struct {
	ID         int        `json:"id"`
	ImageID    int        `json:"image_id"`
	CategoryID int        `json:"category_id"`
	BBox       [4]float64 `json:"bbox"` // x, y, width, height.
	Area       float64    `json:"area"`
	IsCrowd    int        `json:"iscrowd"`
}

// COCOCategory is a single category entry of a COCO document.
type COCOCategory struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

// COCODocument is a complete COCO annotation document.
type COCODocument struct {
	Info        COCOInfo         `json:"info"`
	Images      []COCOImage      `json:"images"`
	Annotations []COCOAnnotation `json:"annotations"`
	Categories  []COCOCategory   `json:"categories"`
	Licenses    []interface{}    `json:"licenses"`
}

// ExportCOCOOptions configure an ExportCOCO run.
type ExportCOCOOptions struct {
	Root     string   // Dataset root.
	OutDir   string   // Output directory. Defaults to <root>/annotations.
	Category string   // Category directory name. Defaults to DefaultCategory.
	Splits   []string // Splits to export. Defaults to train, val and test.
}

// ExportCOCOResult summarises an ExportCOCO run.
type ExportCOCOResult struct {
	Images      int
	Annotations int
	Report      Report
}

// ExportCOCO writes one COCO JSON document per requested split to the output
// directory, named <category>_instances_<split>.json.
func ExportCOCO(opts ExportCOCOOptions) (*ExportCOCOResult, error) {
	applyExportDefaults(&opts.Category, &opts.OutDir, &opts.Splits, opts.Root)

	if err := mkdirAll(opts.OutDir); err != nil {
		return nil, err
	}
	categoryRoot := filepath.Join(opts.Root, opts.Category)

	result := &ExportCOCOResult{}
	for _, split := range opts.Splits {
		doc, err := buildCOCODocument(categoryRoot, opts.Category, split, &result.Report)
		if err != nil {
			return nil, err
		}

		outPath := filepath.Join(opts.OutDir, fmt.Sprintf("%s_instances_%s.json", opts.Category, split))
		enc, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := ioutil.WriteFile(outPath, enc, 0644); err != nil {
			return nil, fmt.Errorf("cannot write file %q: %v", outPath, err)
		}

		result.Images += len(doc.Images)
		result.Annotations += len(doc.Annotations)
		log.Printf("Generated %s: %d images, %d annotations, %d categories",
			outPath, len(doc.Images), len(doc.Annotations), len(doc.Categories))
	}

	return result, nil
}

// buildCOCODocument assembles the COCO document for a single split.
//
// Image IDs and annotation IDs are sequential from 1 in sorted stem order;
// annotation IDs are global across the split. Stems without an image file and
// boxes without a resolvable label are dropped into the report.
func buildCOCODocument(categoryRoot, category, split string, report *Report) (*COCODocument, error) {
	labelMap, err := LoadLabelMap(filepath.Join(categoryRoot, "labelmap.json"))
	if err != nil {
		return nil, err
	}
	resolver := NewLabelResolver(labelMap)

	categories := make([]COCOCategory, 0, len(labelMap))
	for _, e := range labelMap.Categories() {
		categories = append(categories, COCOCategory{
			ID:            e.LabelID,
			Name:          e.ObjectName,
			Supercategory: supercategoryName,
		})
	}

	stems, err := splitStems(categoryRoot, split)
	if err != nil {
		return nil, err
	}

	imagesDir := filepath.Join(categoryRoot, "images")
	csvDir := filepath.Join(categoryRoot, "csv")
	fileNameBase := filepath.Dir(categoryRoot)

	images := []COCOImage{}
	annotations := []COCOAnnotation{}

	for _, st := range stems {
		imgPath := findImage(imagesDir, st)
		if imgPath == "" {
			report.skip(st, "no image file")
			continue
		}
		cfg, _, err := decodeImageConfig(imgPath)
		if err != nil {
			report.skip(imgPath, fmt.Sprintf("failed to decode: %v", err))
			continue
		}

		relPath, err := filepath.Rel(fileNameBase, imgPath)
		if err != nil {
			relPath = imgPath
		}

		imageID := len(images) + 1
		images = append(images, COCOImage{
			ID:       imageID,
			FileName: filepath.ToSlash(relPath),
			Width:    cfg.Width,
			Height:   cfg.Height,
		})

		boxes, err := ReadImageCSV(filepath.Join(csvDir, st+".csv"), report)
		if err != nil {
			return nil, err
		}
		for _, box := range boxes {
			categoryID, ok := resolver.Resolve(box.Label)
			if !ok {
				report.skip(fmt.Sprintf("%s label %q", st, box.Label), "no matching label ID")
				continue
			}
			annotations = append(annotations, COCOAnnotation{
				ID:         len(annotations) + 1,
				ImageID:    imageID,
				CategoryID: categoryID,
				BBox:       [4]float64{box.X, box.Y, box.Width, box.Height},
				Area:       box.Area(),
				IsCrowd:    0,
			})
		}
	}

	doc := &COCODocument{
		Info: COCOInfo{
			Year:        2020,
			Version:     "1.0.0",
			Description: fmt.Sprintf("PlantDoc %s %s split", category, split),
			URL:         datasetURL,
		},
		Images:      images,
		Annotations: annotations,
		Categories:  categories,
		Licenses:    []interface{}{},
	}

	return doc, nil
}

// applyExportDefaults fills the shared exporter option defaults in place.
func applyExportDefaults(category, outDir *string, splits *[]string, root string) {
	if *category == "" {
		*category = DefaultCategory
	}
	if *outDir == "" {
		*outDir = filepath.Join(root, "annotations")
	}
	if len(*splits) == 0 {
		*splits = []string{SplitTrain, SplitVal, SplitTest}
	}
}
