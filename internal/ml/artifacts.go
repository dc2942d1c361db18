package ml

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Artifact file names under the artifacts directory. Per-model files live in
// a subdirectory named after the model; preprocessors are shared because
// every model scores the same encoded, scaled inputs.
const (
	encodersFile     = "encoders.json"
	scalerFile       = "scaler.json"
	featureNamesFile = "feature_names.json"
	mediansFile      = "medians.json"
	bestModelFile    = "best_model_name.txt"
	comparisonFile   = "model_comparison.csv"
	modelFile        = "model.json"
	metricsFile      = "metrics.json"
	importanceFile   = "feature_importance.csv"
)

// modelDir converts a model name to its artifact directory name.
func modelDir(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// writeFileAtomic writes via a temp file in the target directory and renames
// it into place, so a crashed run never leaves a truncated artifact.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename artifact %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", path, err)
	}
	return writeFileAtomic(path, data)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return nil
}

// Preprocessors are the shared fit-time transforms needed at scoring time.
type Preprocessors struct {
	FeatureNames []string
	Encoders     map[string]*LabelEncoder
	Scaler       *StandardScaler
	Medians      []float64
}

// SavePreprocessors persists the shared preprocessing artifacts.
func SavePreprocessors(dir string, p *Preprocessors) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifacts dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, featureNamesFile), p.FeatureNames); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, encodersFile), p.Encoders); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, mediansFile), p.Medians); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, scalerFile), p.Scaler)
}

// LoadPreprocessors reads the shared preprocessing artifacts.
func LoadPreprocessors(dir string) (*Preprocessors, error) {
	p := &Preprocessors{Scaler: &StandardScaler{}}
	if err := readJSON(filepath.Join(dir, featureNamesFile), &p.FeatureNames); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, encodersFile), &p.Encoders); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, mediansFile), &p.Medians); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, scalerFile), p.Scaler); err != nil {
		return nil, err
	}
	return p, nil
}

// modelEnvelope tags a serialized model with its concrete type.
type modelEnvelope struct {
	Type  string          `json:"type"`
	Model json.RawMessage `json:"model"`
}

// SaveModel persists one fitted model with its metrics and global feature
// importance ranking.
func SaveModel(dir string, model Classifier, metrics ModelMetrics, importance []FeatureImportance) error {
	outDir := filepath.Join(dir, modelDir(model.Name()))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	raw, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("marshal model %s: %w", model.Name(), err)
	}
	env := modelEnvelope{Type: model.Name(), Model: raw}
	if err := writeJSON(filepath.Join(outDir, modelFile), env); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, metricsFile), metrics); err != nil {
		return err
	}
	return writeImportanceCSV(filepath.Join(outDir, importanceFile), importance)
}

// LoadModel reads one fitted model by name.
func LoadModel(dir, name string) (Classifier, error) {
	var env modelEnvelope
	if err := readJSON(filepath.Join(dir, modelDir(name), modelFile), &env); err != nil {
		return nil, err
	}

	var model Classifier
	switch env.Type {
	case ModelLogisticRegression:
		model = &LogisticRegression{}
	case ModelRandomForest:
		model = &RandomForest{}
	case ModelGradientBoosting:
		model = &GradientBoosting{}
	default:
		return nil, fmt.Errorf("unknown model type %q", env.Type)
	}
	if err := json.Unmarshal(env.Model, model); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", env.Type, err)
	}

	switch m := model.(type) {
	case *LogisticRegression:
		if len(m.Weights) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFitted, env.Type)
		}
	case *RandomForest:
		if len(m.Trees) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFitted, env.Type)
		}
	case *GradientBoosting:
		if len(m.Trees) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFitted, env.Type)
		}
	}
	return model, nil
}

// LoadMetrics reads the persisted evaluation metrics of one model.
func LoadMetrics(dir, name string) (ModelMetrics, error) {
	var m ModelMetrics
	err := readJSON(filepath.Join(dir, modelDir(name), metricsFile), &m)
	return m, err
}

// SaveBestModelName records the winning model as the serving default.
func SaveBestModelName(dir, name string) error {
	return writeFileAtomic(filepath.Join(dir, bestModelFile), []byte(name))
}

// LoadBestModelName reads the serving default model name.
func LoadBestModelName(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, bestModelFile))
	if err != nil {
		return "", fmt.Errorf("read best model name: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveComparison writes the cross-model metric comparison, ordered as given.
func SaveComparison(dir string, all []ModelMetrics) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"model_name", "accuracy", "precision", "recall", "f1_score", "roc_auc", "pr_auc", "cv_mean", "cv_std"})
	for _, m := range all {
		_ = w.Write([]string{
			m.ModelName,
			formatFloat(m.Accuracy),
			formatFloat(m.Precision),
			formatFloat(m.Recall),
			formatFloat(m.F1Score),
			formatFloat(m.ROCAUC),
			formatFloat(m.PRAUC),
			formatFloat(m.CVMean),
			formatFloat(m.CVStd),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode comparison: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, comparisonFile), []byte(sb.String()))
}

func writeImportanceCSV(path string, importance []FeatureImportance) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"feature", "importance"})
	for _, fi := range importance {
		_ = w.Write([]string{fi.Feature, formatFloat(fi.Importance)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode importance: %w", err)
	}
	return writeFileAtomic(path, []byte(sb.String()))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
