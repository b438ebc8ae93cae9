package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword 用bcrypt生成密码哈希，存库时只保存哈希
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("密码哈希失败: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword 校验明文密码与哈希是否匹配，不匹配时返回错误
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
