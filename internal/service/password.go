package service

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword возвращает bcrypt-хэш пароля. Соль уникальна для каждого вызова.
func hashPassword(password string, cost int) (string, error) {
	const op = "service.hashPassword"

	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(hash), nil
}

// checkPassword сравнивает пароль с хэшем. Повреждённый хэш — это несовпадение, не ошибка.
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// dummyPasswordHash — хэш для сравнения при неизвестном email,
// чтобы время ответа не выдавало существование аккаунта.
func dummyPasswordHash(cost int) string {
	dummyOnce.Do(func() {
		h, err := hashPassword("bodytrack-dummy-password", cost)
		if err == nil {
			dummyHash = h
		}
	})

	return dummyHash
}
