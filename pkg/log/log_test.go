// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LogSuite struct {
	suite.Suite
}

func (s *LogSuite) SetupTest() {
	logger, props, err := InitTestLogger(s.T(), &Config{Level: "debug", DisableTimestamp: true})
	s.Require().NoError(err)
	ReplaceGlobals(logger, props)
}

func (s *LogSuite) TestGlobalAndWith() {
	Info("plain message")
	Warn("with fields", FieldDocument("scene.xml"), FieldVersion("1.2.0"))

	child := With(FieldDocument("scene.xml"))
	s.Require().NotNil(child)
	child.Debug("child logger message", zap.Int("n", 1))
}

func (s *LogSuite) TestCtx() {
	ctx := WithDocument(context.Background(), "scene.xml")
	Ctx(ctx).Info("ctx logger carries the document field")
	Ctx(nil).Info("nil ctx falls back to the global logger")
}

func (s *LogSuite) TestBinderFallback() {
	var b Binder
	s.Require().NotNil(b.Logger())
	b.Logger().Info("unbound binder uses the global logger")

	bound := With(FieldDocument("bound.xml"))
	b.SetLogger(bound)
	s.Same(bound, b.Logger())
}

func (s *LogSuite) TestRated() {
	// 默认限流器不丢日志。
	lg := With(FieldDocument("rated.xml"))
	s.True(lg.RatedDebug(1, "rated debug"))
	s.True(lg.RatedInfo(1, "rated info"))
	s.True(lg.RatedWarn(1, "rated warn"))
}

func (s *LogSuite) TestLevels() {
	SetLevel(zap.WarnLevel)
	s.Equal(zap.WarnLevel, GetLevel())
	SetLevel(zap.DebugLevel)
	s.Equal(zap.DebugLevel, GetLevel())
}

func TestLog(t *testing.T) {
	suite.Run(t, new(LogSuite))
}
