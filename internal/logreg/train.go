package logreg

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/vovakirdan/flappy-lab/internal/env"
)

// stdEpsilon is added to every standard deviation before it is stored.
const stdEpsilon = 1e-6

// lossEpsilon keeps the log terms of the loss finite.
const lossEpsilon = 1e-8

var (
	// ErrEmptyDataset is returned when there is nothing to train on.
	ErrEmptyDataset = errors.New("logreg: empty dataset")
	// ErrInvalidTrainConfig is returned for out-of-range hyperparameters.
	ErrInvalidTrainConfig = errors.New("logreg: invalid train config")
)

// TrainConfig holds the gradient-descent hyperparameters.
type TrainConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	ValSplit     float64 `yaml:"val_split"`
	Degree       int     `yaml:"degree"`
	Seed         int64   `yaml:"seed"`
	LogEvery     int     `yaml:"log_every"`
}

// DefaultTrainConfig returns the reference hyperparameters.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		LearningRate: 0.1,
		Epochs:       50,
		ValSplit:     0.2,
		Degree:       1,
		Seed:         42,
		LogEvery:     5,
	}
}

// Validate checks the hyperparameters.
func (c TrainConfig) Validate() error {
	switch {
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive", ErrInvalidTrainConfig)
	case c.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be positive", ErrInvalidTrainConfig)
	case c.ValSplit < 0 || c.ValSplit >= 1:
		return fmt.Errorf("%w: val split must be in [0, 1)", ErrInvalidTrainConfig)
	case c.Degree < 1 || c.Degree > MaxDegree:
		return fmt.Errorf("%w: %d", ErrUnsupportedDegree, c.Degree)
	}
	return nil
}

// EpochStats is one logged line of training progress.
type EpochStats struct {
	Epoch    int
	Loss     float64
	TrainAcc float64
	ValAcc   float64
}

// Report summarizes a training run.
type Report struct {
	TrainSize int
	ValSize   int
	Loss      float64
	TrainAcc  float64
	// ValAcc is zero when the validation split is empty.
	ValAcc  float64
	History []EpochStats
}

// Train fits a model on raw observations x with binary labels y.
//
// Statistics are computed over the full set after expansion, the rows are
// shuffled with cfg.Seed and split, weights start at zero, and every epoch is
// one full-batch gradient step on binary cross-entropy.
func Train(x [][]float64, y []int, cfg TrainConfig, logger *log.Logger) (*Model, Report, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := cfg.Validate(); err != nil {
		return nil, Report{}, err
	}
	if len(x) == 0 {
		return nil, Report{}, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return nil, Report{}, fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, len(x), len(y))
	}
	for i, row := range x {
		if len(row) != env.NumFeatures {
			return nil, Report{}, fmt.Errorf("%w: row %d has %d features, expected %d", ErrShapeMismatch, i, len(row), env.NumFeatures)
		}
		if y[i] != 0 && y[i] != 1 {
			return nil, Report{}, fmt.Errorf("logreg: label %d at row %d is not binary", y[i], i)
		}
	}

	xs := designMatrix(ExpandAll(x, cfg.Degree))
	mean, std := standardStats(xs)
	standardize(xs, mean, std)

	n, d := xs.Dims()
	idx := rand.New(rand.NewSource(cfg.Seed)).Perm(n)
	cut := int(float64(n) * (1 - cfg.ValSplit))
	if cut == 0 {
		cut = 1
	}
	trX, trY := gather(xs, y, idx[:cut])
	vaX, vaY := gather(xs, y, idx[cut:])

	m := len(trY)
	w := mat.NewVecDense(d, nil)
	b := 0.0
	z := mat.NewVecDense(m, nil)
	dz := mat.NewVecDense(m, nil)
	grad := mat.NewVecDense(d, nil)

	report := Report{TrainSize: m, ValSize: len(vaY)}
	logEvery := cfg.LogEvery
	if logEvery <= 0 {
		logEvery = 5
	}

	for ep := 1; ep <= cfg.Epochs; ep++ {
		// z = X·w + b
		z.MulVec(trX, w)
		loss := 0.0
		for i, label := range trY {
			p := sigmoid(z.AtVec(i) + b)
			t := float64(label)
			loss -= t*math.Log(p+lossEpsilon) + (1-t)*math.Log(1-p+lossEpsilon)
			dz.SetVec(i, (p-t)/float64(m))
		}
		loss /= float64(m)

		// dw = Xᵀ·dz
		grad.MulVec(trX.T(), dz)
		w.AddScaledVec(w, -cfg.LearningRate, grad)
		b -= cfg.LearningRate * mat.Sum(dz)

		report.Loss = loss
		if ep == 1 || ep%logEvery == 0 || ep == cfg.Epochs {
			st := EpochStats{
				Epoch:    ep,
				Loss:     loss,
				TrainAcc: accuracy(w, b, trX, trY),
				ValAcc:   accuracy(w, b, vaX, vaY),
			}
			report.History = append(report.History, st)
			logger.Info("epoch",
				"epoch", fmt.Sprintf("%03d", ep),
				"loss", fmt.Sprintf("%.4f", st.Loss),
				"acc_tr", fmt.Sprintf("%.3f", st.TrainAcc),
				"acc_va", fmt.Sprintf("%.3f", st.ValAcc),
			)
		}
	}

	report.TrainAcc = accuracy(w, b, trX, trY)
	report.ValAcc = accuracy(w, b, vaX, vaY)

	weights := make([]float64, d)
	copy(weights, w.RawVector().Data)
	model := &Model{
		Degree:   cfg.Degree,
		Features: FeatureNames(cfg.Degree),
		Weights:  weights,
		Bias:     b,
		Mean:     mean,
		Std:      std,
	}
	return model, report, nil
}

// Accuracy returns the share of rows the model labels correctly.
func Accuracy(m *Model, x [][]float64, y []int) float64 {
	if len(x) == 0 {
		return 0
	}
	correct := 0
	for i, row := range x {
		pred := 0
		if m.ProbRaw(row) >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}

// designMatrix packs equally long rows into an n×d matrix.
func designMatrix(rows [][]float64) *mat.Dense {
	x := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		x.SetRow(i, r)
	}
	return x
}

// standardStats returns the per-column mean and population standard
// deviation plus stdEpsilon.
func standardStats(x *mat.Dense) (mean, std []float64) {
	n, d := x.Dims()
	mean = make([]float64, d)
	std = make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		mu, sd := stat.PopMeanStdDev(col, nil)
		mean[j] = mu
		std[j] = sd + stdEpsilon
	}
	return mean, std
}

// standardize rescales x in place.
func standardize(x *mat.Dense, mean, std []float64) {
	x.Apply(func(_, j int, v float64) float64 {
		return (v - mean[j]) / std[j]
	}, x)
}

// gather copies the rows named by idx. An empty idx yields a nil matrix.
func gather(x *mat.Dense, y []int, idx []int) (*mat.Dense, []int) {
	if len(idx) == 0 {
		return nil, nil
	}
	_, d := x.Dims()
	gx := mat.NewDense(len(idx), d, nil)
	gy := make([]int, len(idx))
	for k, i := range idx {
		gx.SetRow(k, x.RawRowView(i))
		gy[k] = y[i]
	}
	return gx, gy
}

// accuracy evaluates already standardized rows.
func accuracy(w *mat.VecDense, b float64, x *mat.Dense, y []int) float64 {
	if x == nil {
		return 0
	}
	z := mat.NewVecDense(len(y), nil)
	z.MulVec(x, w)
	correct := 0
	for i, label := range y {
		pred := 0
		if sigmoid(z.AtVec(i)+b) >= 0.5 {
			pred = 1
		}
		if pred == label {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}
