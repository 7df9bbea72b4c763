// Package linreg learns ordinary least squares linear regression models
// from row sources that may be too large for memory and may contain
// missing values.
//
// Rows are read in passes: the first pass accumulates AᵗA and the
// predictor sums while recording which rows had a missing target or
// predictor, the normal matrix is inverted with Gauss-Jordan elimination,
// a second pass computes the coefficients and an optional third pass the
// sum of squared errors. Rows with missing values are skipped consistently
// in every pass.
//
// # Installation
//
//	go get github.com/YuminosukeSato/linreg
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/linreg/dataset"
//	    "github.com/YuminosukeSato/linreg/linear"
//	)
//
//	func main() {
//	    // Stream a CSV file; "?" and empty cells are missing values
//	    src, err := dataset.OpenCSV("houses.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    learner := linear.NewLearner(linear.WithComputeError(true))
//	    res, err := learner.Fit(context.Background(), src, linear.DesignSpec{
//	        Target:     "price",
//	        Predictors: []string{"area", "age"},
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fmt.Println("offset:", res.Offset())
//	    fmt.Println("coefficients:", res.Coefficients())
//	}
//
// # Packages
//
//   - linear: Learner, Result and the predicting Model
//   - dataset: schemas, in-memory tables, CSV and npy row sources
//   - preprocessing: streaming StandardScaler and MinMaxScaler
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - core/matrix: dense matrices, Gauss-Jordan inverse, multiplication
//   - core/model: model state, interfaces and compressed persistence
//   - core/parallel: parallel processing utilities
//   - pkg/errors, pkg/log: structured errors and logging
//
// The linreg command in cmd/linreg fits a model from the command line.
//
// # Errors
//
// Fit fails with an InsufficientDataError when there are not more usable
// rows than unknowns, and with a NumericallyUnstableError carrying
// remediation hints when AᵗA is singular. Use errors.Hints to read them.
//
// # License
//
// linreg is released under the MIT License.
package linreg
