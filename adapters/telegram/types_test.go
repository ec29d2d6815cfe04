package telegram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessageUpdate(t *testing.T) {
	raw := `{
		"update_id": 1001,
		"message": {
			"message_id": 5,
			"from": {"id": 42, "is_bot": false, "first_name": "Valeriia", "username": "val"},
			"chat": {"id": 42, "type": "private"},
			"text": "/discussion"
		}
	}`

	var upd Update
	require.NoError(t, json.Unmarshal([]byte(raw), &upd))

	assert.Equal(t, int64(1001), upd.UpdateID)
	require.NotNil(t, upd.Message)
	assert.Nil(t, upd.CallbackQuery)
	assert.Equal(t, int64(42), upd.Message.From.ID)
	assert.Equal(t, "/discussion", upd.Message.Text)
	assert.Equal(t, "private", upd.Message.Chat.Type)
}

func TestDecodeCallbackUpdate(t *testing.T) {
	raw := `{
		"update_id": 1002,
		"callback_query": {
			"id": "cb-77",
			"from": {"id": 42, "is_bot": false, "first_name": "Valeriia"},
			"message": {"message_id": 6, "chat": {"id": 42, "type": "private"}},
			"data": "level_B1"
		}
	}`

	var upd Update
	require.NoError(t, json.Unmarshal([]byte(raw), &upd))

	require.NotNil(t, upd.CallbackQuery)
	assert.Equal(t, "cb-77", upd.CallbackQuery.ID)
	assert.Equal(t, "level_B1", upd.CallbackQuery.Data)
	require.NotNil(t, upd.CallbackQuery.Message)
	assert.Equal(t, int64(42), upd.CallbackQuery.Message.Chat.ID)
}

func TestEncodeInlineKeyboard(t *testing.T) {
	markup := InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: "👍 Helpful", CallbackData: "feedback_helpful"}},
		},
	}

	raw, err := json.Marshal(markup)
	require.NoError(t, err)
	assert.JSONEq(t, `{"inline_keyboard":[[{"text":"👍 Helpful","callback_data":"feedback_helpful"}]]}`, string(raw))
}

func TestDecodeAPIErrorEnvelope(t *testing.T) {
	raw := `{"ok": false, "error_code": 409, "description": "Conflict: terminated by other getUpdates request"}`

	var resp apiResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	assert.False(t, resp.OK)
	assert.Equal(t, 409, resp.ErrorCode)
	assert.Contains(t, resp.Description, "Conflict")
}
