package assert

import (
	"fmt"
	"sync/atomic"
)

// 单例构造链的最大深度，超过视为循环依赖
const maxConstructionDepth = 64

var constructionDepth int64

// NotCircular 守护单例之间的构造链，构造深度异常时直接panic。
// 在每个Default*构造函数入口调用。
func NotCircular() {
	depth := atomic.AddInt64(&constructionDepth, 1)
	defer atomic.AddInt64(&constructionDepth, -1)
	if depth > maxConstructionDepth {
		panic(fmt.Sprintf("circular singleton construction detected (depth=%d)", depth))
	}
}

// NotNil 确保依赖已经构造完成
func NotNil(v interface{}) {
	if v == nil {
		panic("assert: unexpected nil dependency")
	}
}
