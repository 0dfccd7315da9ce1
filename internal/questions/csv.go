package questions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-party/internal"
)

type Word struct {
	Text  string
	Count int
}

// CSVSource serves shuffled pools from a "word,count" file loaded once.
type CSVSource struct {
	words   []Word
	size    int
	shuffle func(n int, swap func(i, j int))
}

func NewCSVSource(path string, size int) (*CSVSource, error) {
	words, err := ReadCsvFile(path)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("no usable words in %s", path)
	}
	return &CSVSource{words: words, size: size, shuffle: rand.Shuffle}, nil
}

func (s *CSVSource) FetchPool(ctx context.Context) ([]internal.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contents := make([]string, len(s.words))
	for i, w := range s.words {
		contents[i] = w.Text
	}
	s.shuffle(len(contents), func(i, j int) {
		contents[i], contents[j] = contents[j], contents[i]
	})
	return numbered(contents, s.size), nil
}

// ReadCsvFile parses rows of "word,count". Rows with a missing or invalid
// count are skipped.
func ReadCsvFile(filePath string) ([]Word, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read input file %s: %w", filePath, err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse file as CSV for %s: %w", filePath, err)
	}

	words := make([]Word, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if len(record) < 2 {
			log.Debug().Strs("record", record).Msg("[ReadCsvFile] skipping invalid record")
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			log.Debug().Str("count", record[1]).Msg("[ReadCsvFile] invalid count value")
			continue
		}
		text := strings.TrimSpace(record[0])
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup || text == "" {
			continue
		}
		seen[key] = struct{}{}
		words = append(words, Word{Text: text, Count: count})
	}

	if len(words) == 0 && len(records) > 0 {
		return nil, errors.New("csv contains no valid word rows")
	}
	return words, nil
}
