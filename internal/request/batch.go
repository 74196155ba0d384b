package request

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/bayesab/internal/domain"
)

// batchFile es el formato de un archivo de experimentos:
//
//	experiments:
//	  - name: checkout-button
//	    a_tot: 1000
//	    a_pos: 120
//	    b_tot: 1000
//	    b_pos: 141
type batchFile struct {
	Experiments []Request `yaml:"experiments" json:"experiments"`
}

// LoadBatch lee un archivo YAML (o JSON, que es YAML válido) con una lista de requests.
func LoadBatch(path string) ([]Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("request.LoadBatch: read %q: %w", path, err)
	}
	reqs, err := ParseBatch(data)
	if err != nil {
		return nil, fmt.Errorf("request.LoadBatch: %s: %w", filepath.Base(path), err)
	}
	return reqs, nil
}

// ParseOne parsea un único request: JSON si empieza por '{', YAML en otro caso.
func ParseOne(data []byte) (Request, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return Decode(data)
	}
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("request.ParseOne: %w", &domain.FieldError{
			Kind: domain.ErrInvalidInput,
			Msg:  fmt.Sprintf("invalid YAML: %v", err),
		})
	}
	return req, nil
}

// ParseBatch acepta tanto {experiments: [...]} como una lista desnuda.
func ParseBatch(data []byte) ([]Request, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, &domain.FieldError{Field: "experiments", Kind: domain.ErrInvalidInput, Msg: "empty batch file"}
	}

	var reqs []Request
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "-") {
		if err := yaml.Unmarshal(data, &reqs); err != nil {
			return nil, &domain.FieldError{Kind: domain.ErrInvalidInput, Msg: fmt.Sprintf("parse batch: %v", err)}
		}
	} else {
		var bf batchFile
		if err := yaml.Unmarshal(data, &bf); err != nil {
			return nil, &domain.FieldError{Kind: domain.ErrInvalidInput, Msg: fmt.Sprintf("parse batch: %v", err)}
		}
		reqs = bf.Experiments
	}

	if len(reqs) == 0 {
		return nil, &domain.FieldError{Field: "experiments", Kind: domain.ErrInvalidInput, Msg: "no experiments in batch"}
	}
	return reqs, nil
}
