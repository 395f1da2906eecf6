// Package trainconfig loads train definitions from YAML and passenger manifests from CSV.
package trainconfig

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
	"gopkg.in/yaml.v3"
)

type Definition struct {
	rail.Snapshot `yaml:",inline"`

	// Manifest is a CSV passenger list, relative to the definition file
	Manifest string `yaml:"manifest"`
}

func ParseDefinition(reader io.Reader) (*Definition, error) {
	var definition Definition

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&definition); err != nil {
		return nil, rail.NewValidationError("invalid train definition: %s", err)
	}

	if definition.TrainNo == "" {
		return nil, rail.NewValidationError("train definition has no train_no")
	}

	return &definition, nil
}

func ParseManifest(reader io.Reader) ([]*rail.Passenger, error) {
	var passengers []*rail.Passenger

	gocsvReader := func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		return r
	}

	if err := gocsv.UnmarshalCSV(gocsvReader(reader), &passengers); err != nil {
		return nil, rail.NewValidationError("invalid passenger manifest: %s", err)
	}

	for i, passenger := range passengers {
		passenger.PNR = strings.TrimSpace(passenger.PNR)
		if passenger.PNR == "" {
			return nil, rail.NewValidationError("manifest row %d has no pnr", i+1)
		}
		if passenger.PassengerStatus == "" {
			passenger.PassengerStatus = rail.PassengerStatusOffline
		}
	}

	return passengers, nil
}

// Load reads a definition file and its manifest into a snapshot ready for initialization
func Load(path string) (*rail.Snapshot, error) {
	definitionYaml, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	definition, err := ParseDefinition(bytes.NewReader(definitionYaml))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	snapshot := definition.Snapshot

	if definition.Manifest != "" {
		manifestPath := definition.Manifest
		if !filepath.IsAbs(manifestPath) {
			manifestPath = filepath.Join(filepath.Dir(path), manifestPath)
		}

		manifestFile, err := os.Open(manifestPath)
		if err != nil {
			return nil, err
		}
		defer manifestFile.Close()

		snapshot.Passengers, err = ParseManifest(manifestFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", manifestPath, err)
		}
	}

	log.Info().
		Str("train", snapshot.TrainNo).
		Int("stations", len(snapshot.Stations)).
		Int("passengers", len(snapshot.Passengers)).
		Msg("Loaded train definition")

	return &snapshot, nil
}
