package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature подпись webhook-уведомления не прошла проверку.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Допустимое расхождение метки времени в заголовке подписи.
const signatureTolerance = 5 * time.Minute

// VerifyWebhook проверяет подпись webhook-уведомления по заголовку
// Stripe-Signature (схема t=<unix>,v1=<hex hmac>) и возвращает разобранное
// событие. Подпись считается от сырого тела запроса: любое изменение байтов
// до проверки ее инвалидирует.
func VerifyWebhook(payload []byte, sigHeader, secret string) (*Event, error) {
	return verifyWebhookAt(payload, sigHeader, secret, time.Now())
}

func verifyWebhookAt(payload []byte, sigHeader, secret string, now time.Time) (*Event, error) {
	const op = "paymentprovider.VerifyWebhook"

	var timestamp int64
	var signatures [][]byte
	for _, pair := range strings.Split(sigHeader, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(v)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return nil, fmt.Errorf("%s: stale timestamp: %w", op, ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	valid := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &event, nil
}

// SignPayload формирует значение заголовка Stripe-Signature для тела payload.
// Используется в тестах и локальной отладке webhook-обработчика.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
