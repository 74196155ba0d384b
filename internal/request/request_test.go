package request_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/bayesab/internal/domain"
	"github.com/alejandrodnm/bayesab/internal/request"
)

func fixedDefaults() request.Defaults {
	d := request.DefaultDefaults()
	d.SeedFunc = func() uint64 { return 1234 }
	return d
}

func TestDecode_AppliesDefaults(t *testing.T) {
	req, err := request.Decode([]byte(`{"a_tot": 100, "a_pos": 50, "b_tot": 120, "b_pos": 70}`))
	require.NoError(t, err)

	exp, err := req.Experiment(fixedDefaults())
	require.NoError(t, err)

	assert.Equal(t, domain.Variant{Trials: 100, Positives: 50}, exp.A)
	assert.Equal(t, domain.Variant{Trials: 120, Positives: 70}, exp.B)
	assert.Equal(t, domain.DefaultPrior, exp.Prior)
	assert.Equal(t, 1000, exp.Samples)
	assert.Equal(t, 100, exp.Bins)
	assert.Equal(t, domain.DefaultPercentiles, exp.Percentiles)
	assert.Equal(t, uint64(1234), exp.Seed)
}

func TestDecode_ExplicitFields(t *testing.T) {
	payload := `{
		"name": "hero-banner",
		"a_tot": 10, "a_pos": 1, "b_tot": 10, "b_pos": 2,
		"prior_pos": 2.5, "prior_neg": 0.5,
		"n_samples": 5000, "n_bins": 40,
		"diff_percentiles": [0.05, 0.95],
		"seed": 18446744073709551615
	}`
	req, err := request.Decode([]byte(payload))
	require.NoError(t, err)

	exp, err := req.Experiment(fixedDefaults())
	require.NoError(t, err)

	assert.Equal(t, "hero-banner", exp.Name)
	assert.Equal(t, domain.Prior{Pos: 2.5, Neg: 0.5}, exp.Prior)
	assert.Equal(t, 5000, exp.Samples)
	assert.Equal(t, 40, exp.Bins)
	assert.Equal(t, []float64{0.05, 0.95}, exp.Percentiles)
	assert.Equal(t, uint64(18446744073709551615), exp.Seed)
}

func TestDecode_ZeroTrialsIsValid(t *testing.T) {
	req, err := request.Decode([]byte(`{"a_tot": 0, "a_pos": 0, "b_tot": 0, "b_pos": 0}`))
	require.NoError(t, err)

	exp, err := req.Experiment(fixedDefaults())
	require.NoError(t, err)
	a, _, err := exp.Posteriors()
	require.NoError(t, err)
	assert.Equal(t, domain.BetaParams{Alpha: 1, Beta: 1}, a)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := request.Decode([]byte(`{"a_tot": 1,`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExperiment_MissingRequiredFields(t *testing.T) {
	req, err := request.Decode([]byte(`{"a_tot": 100}`))
	require.NoError(t, err)

	_, err = req.Experiment(fixedDefaults())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	fields := map[string]bool{}
	for _, fe := range domain.FieldErrors(err) {
		fields[fe.Field] = true
	}
	assert.True(t, fields["a_pos"])
	assert.True(t, fields["b_tot"])
	assert.True(t, fields["b_pos"])
}

func TestExperiment_CollectsAllViolations(t *testing.T) {
	payload := `{
		"a_tot": 100, "a_pos": 101,
		"b_tot": 100, "b_pos": 200,
		"prior_pos": -1,
		"n_samples": 0, "n_bins": 0,
		"diff_percentiles": [0, 0.5, 1]
	}`
	req, err := request.Decode([]byte(payload))
	require.NoError(t, err)

	_, err = req.Experiment(fixedDefaults())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.ErrorIs(t, err, domain.ErrInvalidCount)

	byField := map[string]error{}
	for _, fe := range domain.FieldErrors(err) {
		byField[fe.Field] = fe.Kind
	}
	assert.Equal(t, domain.ErrInvalidParameter, byField["a_pos"])
	assert.Equal(t, domain.ErrInvalidParameter, byField["b_pos"])
	assert.Equal(t, domain.ErrInvalidParameter, byField["prior_pos"])
	assert.Equal(t, domain.ErrInvalidCount, byField["n_samples"])
	assert.Equal(t, domain.ErrInvalidCount, byField["n_bins"])
	assert.Equal(t, domain.ErrInvalidParameter, byField["diff_percentiles[0]"])
	assert.Equal(t, domain.ErrInvalidParameter, byField["diff_percentiles[2]"])
}

func TestExperiment_NonIntegralCounts(t *testing.T) {
	req, err := request.Decode([]byte(`{"a_tot": 1, "a_pos": 0, "b_tot": 1, "b_pos": 0, "n_samples": 10.5}`))
	require.NoError(t, err)

	_, err = req.Experiment(fixedDefaults())
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestExperiment_DefaultSeedFromConfig(t *testing.T) {
	req, err := request.Decode([]byte(`{"a_tot": 1, "a_pos": 0, "b_tot": 1, "b_pos": 1}`))
	require.NoError(t, err)

	d := fixedDefaults()
	seed := uint64(9)
	d.Seed = &seed

	exp, err := req.Experiment(d)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), exp.Seed)
}

func TestParseBatch_Wrapped(t *testing.T) {
	data := []byte(`
experiments:
  - name: first
    a_tot: 100
    a_pos: 10
    b_tot: 100
    b_pos: 12
  - name: second
    a_tot: 50
    a_pos: 5
    b_tot: 50
    b_pos: 9
    n_samples: 2000
`)
	reqs, err := request.ParseBatch(data)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "second", reqs[1].Name)
	require.NotNil(t, reqs[1].NSamples)
	assert.Equal(t, 2000.0, *reqs[1].NSamples)
}

func TestParseBatch_BareJSONList(t *testing.T) {
	reqs, err := request.ParseBatch([]byte(`[{"a_tot": 1, "a_pos": 1, "b_tot": 2, "b_pos": 1}]`))
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	exp, err := reqs[0].Experiment(fixedDefaults())
	require.NoError(t, err)
	assert.Equal(t, 2.0, exp.B.Trials)
}

func TestParseBatch_Empty(t *testing.T) {
	_, err := request.ParseBatch([]byte("experiments: []"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = request.ParseBatch([]byte("   "))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadBatch_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- {a_tot: 3, a_pos: 1, b_tot: 3, b_pos: 2}\n"), 0o644))

	reqs, err := request.LoadBatch(path)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)

	_, err = request.LoadBatch(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseOne_JSONAndYAML(t *testing.T) {
	fromJSON, err := request.ParseOne([]byte(`  {"a_tot": 10, "a_pos": 2, "b_tot": 10, "b_pos": 3, "seed": 9}`))
	require.NoError(t, err)
	fromYAML, err := request.ParseOne([]byte("a_tot: 10\na_pos: 2\nb_tot: 10\nb_pos: 3\nseed: 9\n"))
	require.NoError(t, err)

	a, err := fromJSON.Experiment(fixedDefaults())
	require.NoError(t, err)
	b, err := fromYAML.Experiment(fixedDefaults())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, uint64(9), a.Seed)

	_, err = request.ParseOne([]byte("a_tot: [unclosed"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
