// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrorsByKind counts EngineErrors raised anywhere in the engine,
// labeled by their Kind (logger.ErrKindTransport, ErrKindProtocol,
// ErrKindCrypto, ErrKindSession, ErrKindPersistence, ErrKindCapacity,
// ErrKindPolicy). Kept as a bare string label rather than importing
// internal/logger so this package has no dependency back on the
// package that already depends on nothing outside the standard
// library; callers pass err.Kind directly.
var ErrorsByKind = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "errors",
		Name:      "total",
		Help:      "Total number of EngineErrors raised, labeled by kind",
	},
	[]string{"kind"},
)

// RecordError increments the counter for the given error kind.
func RecordError(kind string) {
	ErrorsByKind.WithLabelValues(kind).Inc()
}
