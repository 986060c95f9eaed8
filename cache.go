/*
Copyright © 2026 the changealong authors.
This file is part of changealong.

changealong is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

changealong is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with changealong.  If not, see <http://www.gnu.org/licenses/>.
*/


package changealong

import (
	"context"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/prosuite/changealong/geometry"
	"github.com/prosuite/changealong/internal/hash"
)

// DefaultCacheSize is the number of prepared target sets kept in memory.
const DefaultCacheSize = 32

type targetRequest struct {
	Shapes []geometry.Geometry
	Buffer TargetBufferOptions
}

// targetCache holds target boundaries that have been buffered, so that an
// apply following a calculation does not buffer the same targets again.
type targetCache struct {
	once sync.Once
	c    *requestcache.Cache
}

func (tc *targetCache) init(size int) {
	tc.once.Do(func() {
		if size <= 0 {
			size = DefaultCacheSize
		}
		tc.c = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			return prepareTargets(request.(targetRequest)), nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(size))
	})
}

// paths returns the prepared boundaries of the targets. The result is
// shared and must not be modified.
func (tc *targetCache) paths(ctx context.Context, size int, targets []*Feature, opts TargetBufferOptions) ([]geometry.Path, error) {
	r := targetRequest{Buffer: opts}
	for _, t := range targets {
		r.Shapes = append(r.Shapes, t.Shape)
	}
	if !opts.BufferTarget {
		return prepareTargets(r), nil
	}
	tc.init(size)
	result, err := tc.c.NewRequest(ctx, r, hash.Hash(r)).Result()
	if err != nil {
		return nil, err
	}
	return result.([]geometry.Path), nil
}

func prepareTargets(r targetRequest) []geometry.Path {
	var paths []geometry.Path
	for _, s := range r.Shapes {
		if s.Type == geometry.PointType || s.Type == geometry.Multipatch {
			continue
		}
		paths = append(paths, s.Boundary()...)
	}
	if !r.Buffer.BufferTarget || r.Buffer.BufferDistance <= 0 || len(paths) == 0 {
		return paths
	}
	return geometry.BufferBoundary(paths, r.Buffer.BufferDistance, r.Buffer.minSegmentLength())
}
