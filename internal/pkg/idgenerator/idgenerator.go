// nolint: gochecknoglobals
package idgenerator

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	CorrelationIDLength        = 15
	LockTokenLength            = 25
	EtcdNamespaceForTestLength = 10
)

// alphabet used in ID generation.
var alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func CorrelationID() string {
	return gonanoid.MustGenerate(alphabet, CorrelationIDLength)
}

func LockToken() string {
	return gonanoid.MustGenerate(alphabet, LockTokenLength)
}

func EtcdNamespaceForTest() string {
	return gonanoid.MustGenerate(alphabet, EtcdNamespaceForTestLength)
}
