package marc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/mangacat/internal/models"
	"github.com/lehigh-university-libraries/mangacat/internal/normalize"
)

const (
	defaultPhysicalDescription = "1 volume (unpaged) : chiefly illustrations ; 19 cm"
	comicsForm                 = "Comic books, strips, etc."
	maxSummaryLength           = 500
)

// ErrIncomplete is returned for records missing a title or barcode
var ErrIncomplete = errors.New("record is missing book_title or barcode")

// Builder turns catalog records into MARC records with a holding field
type Builder struct {
	Location    string
	HoldingNote string
	Now         func() time.Time
}

// NewBuilder returns a Builder for the main library manga collection
func NewBuilder() *Builder {
	return &Builder{
		Location:    "Main Library",
		HoldingNote: "Manga collection",
		Now:         time.Now,
	}
}

// Build converts one record. Every record must carry a title and barcode;
// all other fields are optional enrichments.
func (b *Builder) Build(rec models.CatalogRecord) (*Record, error) {
	if strings.TrimSpace(rec.BookTitle) == "" || strings.TrimSpace(rec.Barcode) == "" {
		return nil, fmt.Errorf("%w: %s volume %d", ErrIncomplete, rec.SeriesName, rec.VolumeNumber)
	}

	now := b.Now()
	r := &Record{}
	isbn := strings.ReplaceAll(rec.ISBN13, "-", "")

	controlNumber := isbn
	if controlNumber == "" {
		controlNumber = fmt.Sprintf("M%03d", rec.VolumeNumber)
	}
	r.Add(Field{Tag: "001", Data: controlNumber})
	r.Add(Field{Tag: "003", Data: "OCoLC"})
	r.Add(Field{Tag: "005", Data: now.Format("20060102150405") + ".0"})
	r.Add(Field{Tag: "008", Data: fixedData(now, rec.CopyrightYear)})

	if isbn != "" {
		f := Field{Tag: "020", Subfields: []Subfield{{'a', isbn}}}
		if rec.MSRPCost != nil {
			f.Subfields = append(f.Subfields, Subfield{'c', fmt.Sprintf("$%.2f", *rec.MSRPCost)})
		}
		r.Add(f)
	}

	r.Add(Field{Tag: "040", Subfields: []Subfield{{'a', "OCoLC"}, {'b', "eng"}, {'c', "OCoLC"}, {'e', "rda"}}})

	callNumber := CallNumber(rec)
	if len(rec.Authors) > 0 {
		r.Add(Field{Tag: "090", Subfields: []Subfield{{'a', callNumber}}})
		r.Add(Field{Tag: "100", Ind1: '1', Subfields: []Subfield{{'a', normalize.FormatAuthorName(rec.Authors[0])}}})
		for _, author := range rec.Authors[1:] {
			r.Add(Field{Tag: "700", Ind1: '1', Subfields: []Subfield{{'a', normalize.FormatAuthorName(author)}}})
		}
	}

	title := Field{Tag: "245", Ind1: '0', Ind2: '0', Subfields: []Subfield{{'a', rec.BookTitle}}}
	if len(rec.Authors) > 0 {
		title.Ind1 = '1'
		title.Subfields = append(title.Subfields, Subfield{'c', normalize.FormatAuthorsList(rec.Authors)})
	}
	r.Add(title)

	if rec.PublisherName != "" || rec.CopyrightYear != nil {
		f := Field{Tag: "264", Ind2: '1'}
		if rec.PublisherName != "" {
			f.Subfields = append(f.Subfields, Subfield{'b', rec.PublisherName})
		}
		if rec.CopyrightYear != nil {
			f.Subfields = append(f.Subfields, Subfield{'c', strconv.Itoa(*rec.CopyrightYear)})
		}
		r.Add(f)
	}

	physical := rec.PhysicalDescription
	if physical == "" {
		physical = defaultPhysicalDescription
	}
	r.Add(Field{Tag: "300", Subfields: []Subfield{{'a', physical}}})
	r.Add(Field{Tag: "336", Subfields: []Subfield{{'a', "still image"}, {'b', "sti"}, {'2', "rdacontent"}}})
	r.Add(Field{Tag: "337", Subfields: []Subfield{{'a', "unmediated"}, {'b', "n"}, {'2', "rdamedia"}}})
	r.Add(Field{Tag: "338", Subfields: []Subfield{{'a', "volume"}, {'b', "nc"}, {'2', "rdacarrier"}}})

	if rec.SeriesName != "" {
		r.Add(Field{Tag: "490", Ind1: '1', Subfields: []Subfield{{'a', rec.SeriesName}, {'v', strconv.Itoa(rec.VolumeNumber)}}})
	}

	if len(rec.Genres) > 0 {
		r.Add(Field{Tag: "500", Subfields: []Subfield{{'a', "Manga, " + strings.Join(rec.Genres, ", ")}}})
	}

	if rec.Description != "" {
		r.Add(Field{Tag: "520", Subfields: []Subfield{{'a', truncateRunes(rec.Description, maxSummaryLength)}}})
	}

	for _, genre := range rec.Genres {
		r.Add(Field{Tag: "650", Ind2: '0', Subfields: []Subfield{{'a', genre}, {'v', comicsForm}}})
	}
	r.Add(Field{Tag: "650", Ind2: '0', Subfields: []Subfield{{'a', "Manga"}, {'v', comicsForm}}})

	r.Add(Field{Tag: "852", Ind1: '8', Subfields: []Subfield{
		{'b', b.Location},
		{'h', callNumber},
		{'p', rec.Barcode},
		{'x', b.HoldingNote},
	}})

	if rec.CoverURL != "" {
		r.Add(Field{Tag: "856", Ind1: '4', Ind2: '2', Subfields: []Subfield{{'3', "Cover image"}, {'u', rec.CoverURL}}})
	}

	return r, nil
}

// CallNumber renders "FIC {AUT} {year} {barcode}" from the first author's
// surname, with UNK when there are no authors and 0 when the year is unknown.
func CallNumber(rec models.CatalogRecord) string {
	code := "UNK"
	if len(rec.Authors) > 0 {
		if surname := normalize.Surname(rec.Authors[0]); surname != "" {
			runes := []rune(strings.ToUpper(surname))
			if len(runes) > 3 {
				runes = runes[:3]
			}
			code = string(runes)
		}
	}

	year := 0
	if rec.CopyrightYear != nil {
		year = *rec.CopyrightYear
	}

	return fmt.Sprintf("FIC %s %d %s", code, year, rec.Barcode)
}

// fixedData renders the 40 character 008 field for a single-date fiction book
func fixedData(now time.Time, year *int) string {
	dateType, date1 := "s", "uuuu"
	if year != nil {
		date1 = fmt.Sprintf("%04d", *year)
	} else {
		dateType = "n"
	}
	// 18-34: illustrations, audience, form, contents, gov pub, conference,
	// festschrift, index, undefined, literary form (1 = fiction), biography
	books := "a   " + "  " + "    " + " 000 1 "
	return now.Format("060102") + dateType + date1 + "    " + "xxu" + books + "eng" + " " + "d"
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
