// librootcheck builds the integrity checker as a C shared library for host
// applications:
//
//	go build -buildmode=c-shared -o librootcheck.so ./cmd/librootcheck
//
// Neither export takes parameters; both block until a verdict is ready and
// never fail. Strings returned by CheckDeviceIntegrity must be released
// with FreeString.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"encoding/json"
	"sync"
	"unsafe"

	"github.com/ppiankov/rootcheck/internal/boundary"
	"github.com/ppiankov/rootcheck/internal/checker"
	"github.com/ppiankov/rootcheck/internal/model"
	log "github.com/sirupsen/logrus"
)

var (
	once sync.Once
	host *boundary.Boundary
)

func init() {
	log.WithFields(log.Fields{
		"tool":    checker.Tool,
		"version": checker.Version,
	}).Info("integrity checker library loaded")
}

// surface lazily builds the boundary over the built-in heuristics
func surface() *boundary.Boundary {
	once.Do(func() {
		cfg := model.DefaultConfig()
		c, err := checker.NewDefault(cfg)
		if err != nil {
			log.Errorf("integrity checker unavailable: %v", err)
			host = boundary.New(unavailable{reason: err.Error()}, boundary.Options{})
			return
		}
		host = c.Boundary(cfg.Boundary)
	})
	return host
}

// unavailable answers every call with an empty inconclusive verdict
type unavailable struct {
	reason string
}

func (u unavailable) Check(_ context.Context) model.Verdict {
	return u.Fallback(u.reason)
}

func (u unavailable) Fallback(reason string) model.Verdict {
	return model.Verdict{
		Suspicious: []model.Finding{},
		Signals: []model.Signal{{
			Type:        model.SignalInconclusive,
			Description: "checker unavailable: " + reason,
		}},
	}
}

//export IsDeviceRooted
func IsDeviceRooted() C.int {
	if surface().IsDeviceRooted() {
		return 1
	}
	return 0
}

//export CheckDeviceIntegrity
func CheckDeviceIntegrity() *C.char {
	v := surface().CheckDeviceIntegrity()
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("encode verdict: %v", err)
		data = []byte(`{"rooted":false,"confidence":0,"suspicious":[]}`)
	}
	return C.CString(string(data))
}

//export FreeString
func FreeString(s *C.char) {
	C.free(unsafe.Pointer(s))
}

func main() {}
