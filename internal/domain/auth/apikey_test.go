package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKey(t *testing.T) {
	a := HashKey("pepper", "sk_live_1")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashKey("pepper", "sk_live_1"))
	assert.NotEqual(t, a, HashKey("other", "sk_live_1"))
	assert.NotEqual(t, a, HashKey("pepper", "sk_live_2"))
}

func TestPrincipal(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Subject: "admin"})
	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "admin", p.Subject)
}
