//go:build cgo && netlib
// +build cgo,netlib

package utils

/*
#cgo LDFLAGS: -lopenblas -lm -lpthread
#include <cblas.h>
*/
import "C"

import (
	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

// Dense LU factorizations go through blas64, build with -tags netlib to use OpenBLAS
func init() {
	blas64.Use(netblas.Implementation{})
	BLASImplementation = "netlib"
}
