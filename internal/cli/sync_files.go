package cli

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"cloudsync-pg-backend/internal/domain/models"
)

// serverDoc is a compute server as discovered in a cloud listing file
type serverDoc struct {
	ExternalID string            `yaml:"externalId"`
	Name       string            `yaml:"name"`
	Hostname   string            `yaml:"hostname"`
	InternalIP string            `yaml:"internalIp"`
	ExternalIP string            `yaml:"externalIp"`
	PowerState models.PowerState `yaml:"powerState"`
	MaxCores   int64             `yaml:"maxCores"`
	MaxMemory  int64             `yaml:"maxMemory"`
}

// apply copies the discovered fields onto a stored record
func (d serverDoc) apply(s *models.ComputeServer) {
	s.ExternalID = d.ExternalID
	s.Name = d.Name
	s.Hostname = d.Hostname
	s.InternalIP = d.InternalIP
	s.ExternalIP = d.ExternalIP
	s.PowerState = d.PowerState
	if s.PowerState == "" {
		s.PowerState = models.PowerStateUnknown
	}
	s.MaxCores = d.MaxCores
	s.MaxMemory = d.MaxMemory
}

// referenceDataDoc is a reference data entry as discovered in a cloud listing file
type referenceDataDoc struct {
	ExternalID string `yaml:"externalId"`
	Code       string `yaml:"code"`
	Name       string `yaml:"name"`
	Keyname    string `yaml:"keyname"`
	Value      string `yaml:"value"`
	Type       string `yaml:"type"`
}

func (d referenceDataDoc) entry() models.ReferenceData {
	return models.ReferenceData{
		ExternalID: d.ExternalID,
		Code:       d.Code,
		Name:       d.Name,
		Keyname:    d.Keyname,
		Value:      d.Value,
		Type:       d.Type,
	}
}

type listingFile struct {
	Servers       []serverDoc        `yaml:"servers"`
	ReferenceData []referenceDataDoc `yaml:"referenceData"`
}

func readListingFile(path string) (*listingFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read listing")
	}
	var f listingFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return &f, nil
}
