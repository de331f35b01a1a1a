package storage

import (
	"encoding/json"
	"errors"

	"phylogen/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp fills in the current schema and codec versions.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

func EncodeRun(record model.RunRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var record model.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return record, nil
}

func EncodeSnapshots(snapshots []model.GenerationSnapshot) ([]byte, error) {
	return json.Marshal(snapshots)
}

func DecodeSnapshots(data []byte) ([]model.GenerationSnapshot, error) {
	var snapshots []model.GenerationSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func EncodeBestIndividual(record model.BestIndividualRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeBestIndividual(data []byte) (model.BestIndividualRecord, error) {
	var record model.BestIndividualRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.BestIndividualRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.BestIndividualRecord{}, err
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
