package models

import (
	"github.com/shopspring/decimal"
)

// Money 统一金额类型：最小货币单位（分）的整数计数
type Money int64

// NewMoneyFromUnits 从最小货币单位创建金额
func NewMoneyFromUnits(units int64) Money {
	return Money(units)
}

// Units 返回最小货币单位计数
func (m Money) Units() int64 {
	return int64(m)
}

// Decimal 返回主货币单位的 decimal 表示（如 20000 分 -> 200.00）
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Display 返回 2 位小数的展示格式
func (m Money) Display() string {
	return m.Decimal().StringFixed(2)
}

// IsPositive 金额是否为正
func (m Money) IsPositive() bool {
	return m > 0
}
