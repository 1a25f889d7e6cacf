package serialization

import (
	"context"

	"github.com/samber/lo"

	"github.com/lk2023060901/treedoc-garden-go/pkg/util/conc"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// PassFunc 表示一次独立的序列化或反序列化遍历。
type PassFunc func(ctx context.Context) error

// SaveAll 在协程池上并发执行多次独立的保存遍历。
// 所有遍历都会执行完毕，错误合并返回。
func SaveAll(ctx context.Context, concurrency int, passes ...PassFunc) error {
	return runAll(ctx, concurrency, passes)
}

// LoadAll 在协程池上并发执行多次独立的加载遍历。
// 所有遍历都会执行完毕，错误合并返回。
func LoadAll(ctx context.Context, concurrency int, passes ...PassFunc) error {
	return runAll(ctx, concurrency, passes)
}

func runAll(ctx context.Context, concurrency int, passes []PassFunc) error {
	if len(passes) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = len(passes)
	}

	pool := conc.NewPool[struct{}](concurrency, conc.WithPreAlloc(true))
	defer pool.Release()

	futures := lo.Map(passes, func(pass PassFunc, _ int) *conc.Future[struct{}] {
		return pool.Submit(func() (struct{}, error) {
			return struct{}{}, pass(ctx)
		})
	})

	errs := lo.Map(futures, func(future *conc.Future[struct{}], _ int) error {
		return future.Err()
	})
	return serr.Combine(errs...)
}
