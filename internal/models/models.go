package models

import "time"

// CatalogRecord is the normalized bibliographic record for one manga volume
type CatalogRecord struct {
	SeriesName          string   `json:"series_name" yaml:"series_name" parquet:"series_name"`
	VolumeNumber        int      `json:"volume_number" yaml:"volume_number" parquet:"volume_number"`
	BookTitle           string   `json:"book_title" yaml:"book_title" parquet:"book_title"`
	Authors             []string `json:"authors" yaml:"authors" parquet:"authors,list"`
	MSRPCost            *float64 `json:"msrp_cost,omitempty" yaml:"msrp_cost,omitempty" parquet:"msrp_cost,optional"`
	ISBN13              string   `json:"isbn_13,omitempty" yaml:"isbn_13,omitempty" parquet:"isbn_13,optional"`
	PublisherName       string   `json:"publisher_name,omitempty" yaml:"publisher_name,omitempty" parquet:"publisher_name,optional"`
	CopyrightYear       *int     `json:"copyright_year,omitempty" yaml:"copyright_year,omitempty" parquet:"copyright_year,optional"`
	Description         string   `json:"description,omitempty" yaml:"description,omitempty" parquet:"description,optional"`
	PhysicalDescription string   `json:"physical_description,omitempty" yaml:"physical_description,omitempty" parquet:"physical_description,optional"`
	Genres              []string `json:"genres" yaml:"genres" parquet:"genres,list"`
	Warnings            []string `json:"warnings" yaml:"warnings" parquet:"warnings,list"`
	Barcode             string   `json:"barcode,omitempty" yaml:"barcode,omitempty" parquet:"barcode,optional"`
	CoverURL            string   `json:"cover_url,omitempty" yaml:"cover_url,omitempty" parquet:"cover_url,optional"`
}

// WithBarcode returns a copy of the record stamped with the given barcode
func (r CatalogRecord) WithBarcode(barcode string) CatalogRecord {
	r.Barcode = barcode
	return r
}

// VolumeRef identifies one requested volume of a series
type VolumeRef struct {
	Series string `json:"series" yaml:"series"`
	Volume int    `json:"volume" yaml:"volume"`
}

// SeriesRequest is one series with its parsed volume list
type SeriesRequest struct {
	Series  string `json:"series" yaml:"series"`
	Volumes []int  `json:"volumes" yaml:"volumes"`
}

// Batch is the outcome of cataloging one or more series in a single run
type Batch struct {
	ID           string          `json:"id" yaml:"id"`
	Requests     []SeriesRequest `json:"requests" yaml:"requests"`
	StartBarcode string          `json:"start_barcode,omitempty" yaml:"start_barcode,omitempty"`
	Records      []CatalogRecord `json:"records" yaml:"records"`
	Missing      []VolumeRef     `json:"missing" yaml:"missing"`
	CreatedAt    time.Time       `json:"created_at" yaml:"created_at"`
}

// Requested returns the number of volumes asked for across all series
func (b *Batch) Requested() int {
	total := 0
	for _, req := range b.Requests {
		total += len(req.Volumes)
	}
	return total
}

// WarningCount returns the number of data-quality warnings across all records
func (b *Batch) WarningCount() int {
	total := 0
	for _, rec := range b.Records {
		total += len(rec.Warnings)
	}
	return total
}
