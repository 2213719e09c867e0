package refmap

import (
	"log/slog"
	"strings"
	"sync"

	"refract/internal/remapper"
	"refract/internal/shared/observability"
)

// RemappingMapper decorates a base Mapper with a remapper chain. Each
// query is first restated in the stable development environment by the
// base mapper, then structurally remapped through the chain into the
// target environment. Final results are memoized for the lifetime of
// the instance, keyed by the stable form so differently-spelled inputs
// that canonicalize alike share one entry and one chain derivation.
type RemappingMapper struct {
	base  Mapper
	chain remapper.Remapper

	mu    sync.RWMutex
	cache map[string]string
}

// NewRemappingMapper wraps base in a remapping decorator. A base mapper
// with no mapping data is returned unchanged: decorating it would only
// add an unused cache in front of identity lookups.
func NewRemappingMapper(base Mapper, chain remapper.Remapper) Mapper {
	if base.IsDefault() {
		return base
	}
	slog.Info("remapping references through chain", "resource", base.ResourceName())
	return &RemappingMapper{
		base:  base,
		chain: chain,
		cache: make(map[string]string),
	}
}

func (rm *RemappingMapper) IsDefault() bool       { return rm.base.IsDefault() }
func (rm *RemappingMapper) ResourceName() string  { return rm.base.ResourceName() }
func (rm *RemappingMapper) Status() string        { return rm.base.Status() }
func (rm *RemappingMapper) Context() string       { return rm.base.Context() }
func (rm *RemappingMapper) SetContext(ctx string) { rm.base.SetContext(ctx) }

func (rm *RemappingMapper) Remap(className, ref string) string {
	return rm.RemapWithContext(rm.Context(), className, ref)
}

func (rm *RemappingMapper) RemapWithContext(context, className, ref string) string {
	// Empty means "no reference present"; common, and must not touch
	// the cache or the chain.
	if ref == "" {
		return ref
	}

	orig := rm.base.RemapWithContext(context, className, ref)
	if orig == "" {
		return orig
	}

	rm.mu.RLock()
	cached, ok := rm.cache[orig]
	rm.mu.RUnlock()
	if ok {
		observability.RemapCacheHits.Inc()
		return cached
	}
	observability.RemapCacheMisses.Inc()

	remapped := rm.derive(orig)

	rm.mu.Lock()
	rm.cache[orig] = remapped
	rm.mu.Unlock()
	return remapped
}

// derive performs the structural remap of one stable-environment
// reference through the chain.
func (rm *RemappingMapper) derive(orig string) string {
	// Bare type reference: remap the wrapped name only.
	if strings.HasPrefix(orig, "L") && strings.IndexByte(orig, ';') == len(orig)-1 {
		observability.ChainInvocations.WithLabelValues("class").Inc()
		name := strings.ReplaceAll(orig[1:len(orig)-1], "/", ".")
		mapped := rm.chain.MapType(name)
		return "L" + strings.ReplaceAll(mapped, ".", "/") + ";"
	}

	info := ParseMemberRef(orig)
	switch {
	case !info.HasName() && !info.HasDesc():
		// Class reference written in member form; only the owner can be
		// remapped, and a reference with no parts at all is left alone.
		observability.ChainInvocations.WithLabelValues("owner").Inc()
		if info.HasOwner() {
			return MemberRef{Owner: rm.chain.MapType(info.Owner)}.String()
		}
		return info.String()

	case info.IsField():
		observability.ChainInvocations.WithLabelValues("field").Inc()
		out := MemberRef{Name: rm.chain.MapFieldName(info.Owner, info.Name, info.Desc)}
		if info.HasOwner() {
			out.Owner = rm.chain.MapType(info.Owner)
		}
		if info.HasDesc() {
			out.Desc = rm.chain.MapDesc(info.Desc)
		}
		return out.String()

	default:
		observability.ChainInvocations.WithLabelValues("method").Inc()
		out := MemberRef{Name: rm.chain.MapMethodName(info.Owner, info.Name, info.Desc)}
		if info.HasOwner() {
			out.Owner = rm.chain.MapType(info.Owner)
		}
		if info.HasDesc() {
			out.Desc = remapper.MapMethodDesc(rm.chain, info.Desc)
		}
		return out.String()
	}
}

// CacheLen returns the number of memoized references, for diagnostics.
func (rm *RemappingMapper) CacheLen() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.cache)
}
