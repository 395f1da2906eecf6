package trainconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/train"
)

const definitionYaml = `train_no: "17225"
train_name: Amaravathi Express
journey_date: 2026-10-16T00:00:00Z
sleeper_coaches: 2
ac3_tier_coaches: 1
stations:
  - {code: NS, name: Narasapur, idx: 0, distance_km: 0}
  - {code: BVRM, name: Bhimavaram Town, idx: 1, distance_km: 30}
  - {code: VJA, name: Vijayawada, idx: 2, distance_km: 130}
  - {code: GNT, name: Guntur, idx: 3, distance_km: 162}
manifest: passengers.csv
`

const manifestCSV = `pnr,name,age,gender,pnr_status,rac_number,wl_number,from_idx,to_idx,class,coach_no,berth_no,boarded,no_show,passenger_status,group_id
1000000001,Asha,34,F,CNF,0,0,0,3,SL,S1,1,false,false,online,G1
1000000002,Ravi,61,M,RAC,1,0,1,3,SL,S1,7,false,false,,
1000000003,Meena,25,F,WL,0,1,0,2,SL,,0,false,false,offline,
`

func TestParseDefinition(t *testing.T) {
	definition, err := ParseDefinition(strings.NewReader(definitionYaml))
	require.NoError(t, err)

	assert.Equal(t, "17225", definition.TrainNo)
	assert.Equal(t, 2, definition.SleeperCoaches)
	assert.Equal(t, "passengers.csv", definition.Manifest)
	require.Len(t, definition.Stations, 4)
	assert.Equal(t, 130, definition.Stations[2].DistanceKm)
}

func TestParseDefinitionRejects(t *testing.T) {
	_, err := ParseDefinition(strings.NewReader("train_name: No Number\n"))
	assert.True(t, rail.IsKind(err, rail.ErrorKindValidation))

	_, err = ParseDefinition(strings.NewReader("train_no: '1'\nunknown_field: true\n"))
	assert.Error(t, err)
}

func TestParseManifest(t *testing.T) {
	passengers, err := ParseManifest(strings.NewReader(manifestCSV))
	require.NoError(t, err)
	require.Len(t, passengers, 3)

	assert.Equal(t, rail.PassengerStatusOnline, passengers[0].PassengerStatus)
	assert.Equal(t, "G1", passengers[0].GroupID)
	assert.Equal(t, rail.PNRStatusRAC, passengers[1].PNRStatus)
	assert.Equal(t, 7, passengers[1].BerthNo)
	assert.Equal(t, rail.PassengerStatusOffline, passengers[1].PassengerStatus)
	assert.Equal(t, 1, passengers[2].WLNumber)
}

func TestLoadInitializesTrain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(definitionYaml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passengers.csv"), []byte(manifestCSV), 0o644))

	snapshot, err := Load(path)
	require.NoError(t, err)
	require.Len(t, snapshot.Passengers, 3)

	journey := train.New(train.Config{})
	require.NoError(t, journey.Initialize(snapshot))

	stats := journey.Stats()
	assert.Equal(t, 3, stats.TotalPassengers)
	assert.Equal(t, 1, stats.RAC)
}

func TestLoadMissingManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(definitionYaml), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
