package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultPasswordCost = 10

// HashPassword 生成带随机盐的 bcrypt 摘要；失败时绝不回退为明文
func HashPassword(pw string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(b), nil
}

// CheckPassword 恒定时间比较；摘要格式错误时返回 false
func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// ValidPasswordCost 检查 cost 是否在 bcrypt 允许范围内
func ValidPasswordCost(cost int) bool {
	return cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost
}
