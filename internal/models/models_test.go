package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringListScanHandlesDriverTypes(t *testing.T) {
	var fromBytes StringList
	require.NoError(t, fromBytes.Scan([]byte(`["rpg","fantasy"]`)))
	require.Equal(t, StringList{"rpg", "fantasy"}, fromBytes)

	var fromString StringList
	require.NoError(t, fromString.Scan(`["pc"]`))
	require.Equal(t, StringList{"pc"}, fromString)

	var fromNil StringList
	require.NoError(t, fromNil.Scan(nil))
	require.Empty(t, fromNil)
}

func TestPurchaseStatusValidity(t *testing.T) {
	require.True(t, StatusPending.Valid())
	require.True(t, StatusActivated.Valid())
	require.False(t, PurchaseStatus(0).Valid())
	require.False(t, PurchaseStatus(7).Valid())
}

func TestGameCategoryValidity(t *testing.T) {
	require.True(t, CategoryAction.Valid())
	require.True(t, CategoryOther.Valid())
	require.False(t, GameCategory(0).Valid())
	require.False(t, GameCategory(11).Valid())
}
