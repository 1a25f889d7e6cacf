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

package serr

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/treedoc-garden-go/pkg/log"
)

// Code 返回给定错误对应的错误码。
// WARN: 当前阶段请勿在新代码中直接使用该方法。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case zeusError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(zeusError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func WrapErrAsInputError(err error) error {
	if serr, ok := err.(zeusError); ok {
		WithErrorType(InputError)(&serr)
		return serr
	}
	return err
}

func WrapErrAsInputErrorWhen(err error, targets ...zeusError) error {
	if serr, ok := err.(zeusError); ok {
		for _, target := range targets {
			if target.errCode == serr.errCode {
				log.Info("mark error as input error", zap.Error(err))
				WithErrorType(InputError)(&serr)
				return serr
			}
		}
	}
	return err
}

func GetErrorType(err error) ErrorType {
	if serr, ok := err.(zeusError); ok {
		return serr.errType
	}

	return SystemError
}

// Document 相关错误封装。
func WrapErrDocumentInvalid(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrDocumentInvalid, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrDocumentWrite(path string, cause error) error {
	if cause == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrDocumentWrite, cause.Error(), value("path", path))
}

func WrapErrDocumentRead(path string, cause error) error {
	if cause == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrDocumentRead, cause.Error(), value("path", path))
}

func WrapErrVersionMismatch(expected, actual string, msg ...string) error {
	err := wrapFields(ErrVersionMismatch,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Node 相关错误封装。
func WrapErrNodeMissing(key string, msg ...string) error {
	err := wrapFields(ErrNodeMissing, value("key", key))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrAttributeMissing(key string, msg ...string) error {
	err := wrapFields(ErrAttributeMissing, value("attribute", key))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Value 相关错误封装。
func WrapErrValueFormat(key, raw string, cause error) error {
	if cause == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrValueFormat, cause.Error(),
		value("key", key),
		value("raw", raw),
	)
}

func WrapErrValueOutOfRange[T any](key string, lower, upper, actual T, msg ...string) error {
	err := wrapFields(ErrValueOutOfRange,
		value("key", key),
		bound("value", actual, lower, upper),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Reference 相关错误封装。
func WrapErrReferenceDangling(id string, msg ...string) error {
	err := wrapFields(ErrReferenceDangling, value("reference", id))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrReferenceInvalid(id string, msg ...string) error {
	err := wrapFields(ErrReferenceInvalid, value("reference", id))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// 类型注册表相关错误封装。
func WrapErrTypeTagUnknown(tag string, msg ...string) error {
	err := wrapFields(ErrTypeTagUnknown, value("type", tag))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTypeTagDuplicated(tag string, msg ...string) error {
	err := wrapFields(ErrTypeTagDuplicated, value("type", tag))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrKeyInvalid(key any, msg ...string) error {
	err := wrapFields(ErrKeyInvalid, value("key", key))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err zeusError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err zeusError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
