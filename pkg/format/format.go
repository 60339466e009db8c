package format

import "fmt"

// FormatAmount 把美元金额格式化为可读的数量级表示
// 不足 10 亿按百万显示（$125.5M），10 亿及以上按十亿显示（$2.3B）。
func FormatAmount(amount float64) string {
	return FormatAmountDecimals(amount, 1)
}

// FormatAmountDecimals 同 FormatAmount，但小数位数由调用方指定
func FormatAmountDecimals(amount float64, decimals int) string {
	if amount >= 1_000_000_000 {
		return fmt.Sprintf("$%.*fB", decimals, amount/1_000_000_000)
	}
	return fmt.Sprintf("$%.*fM", decimals, amount/1_000_000)
}
