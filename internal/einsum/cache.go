package einsum

import (
	"sync"

	"k8s.io/klog/v2"
)

// kernelCache memoizes compiled kernels per normalized spec. Callers
// tend to hammer the same handful of specs, so after warm-up the table
// is read-mostly; the lock keeps concurrent warm-up safe.
type kernelCache struct {
	mu      sync.RWMutex
	kernels map[string]*Kernel
}

var cache = kernelCache{kernels: make(map[string]*Kernel)}

// kernelFor returns the compiled kernel for a normalized spec, building
// it on first use. Specs that differ only in label spelling share a
// cache entry through the canonical key.
func kernelFor(spec *Spec) *Kernel {
	key := spec.Key()

	cache.mu.RLock()
	k, ok := cache.kernels[key]
	cache.mu.RUnlock()
	if ok {
		if klog.V(2).Enabled() {
			klog.Infof("einsum: kernel cache hit for %s", key)
		}
		return k
	}

	k = newKernel(spec)
	cache.mu.Lock()
	if existing, ok := cache.kernels[key]; ok {
		k = existing
	} else {
		cache.kernels[key] = k
	}
	cache.mu.Unlock()

	if klog.V(1).Enabled() {
		klog.Infof("einsum: compiled kernel for %s (loop order %v)", key, k.plan)
	}
	return k
}

// Compile parses, normalizes and compiles a subscript string into a
// reusable kernel. This is the ahead-of-time path for specifications
// known at build time; package-level kernels compiled once via
// MustCompile avoid re-deriving the loop order on every call.
func Compile(subscripts string) (*Kernel, error) {
	spec, err := Parse(subscripts)
	if err != nil {
		return nil, err
	}
	return kernelFor(spec), nil
}

// MustCompile is like Compile but panics on error. Intended for
// package-level kernel variables with literal specs, mirroring
// regexp.MustCompile.
func MustCompile(subscripts string) *Kernel {
	k, err := Compile(subscripts)
	if err != nil {
		panic(err)
	}
	return k
}
