package mocks

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func TestMockBot_SendMessage(t *testing.T) {
	t.Parallel()

	t.Run("captures sent message", func(t *testing.T) {
		t.Parallel()

		mockBot := NewMockBot()
		msg, err := mockBot.SendMessage(context.Background(), &bot.SendMessageParams{
			ChatID: int64(12345),
			Text:   "Cierre de caja",
		})

		require.NoError(t, err)
		require.Equal(t, 1000, msg.ID)
		require.Equal(t, int64(12345), msg.Chat.ID)
		require.Equal(t, 1, mockBot.SentMessageCount())
		require.Equal(t, "Cierre de caja", mockBot.LastSentMessage().Text)
	})

	t.Run("returns error when configured", func(t *testing.T) {
		t.Parallel()

		mockBot := NewMockBot()
		mockBot.SendMessageError = errors.New("send failed")

		_, err := mockBot.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: int64(1), Text: "x"})
		require.EqualError(t, err, "send failed")
		require.Zero(t, mockBot.SentMessageCount())
		require.Nil(t, mockBot.LastSentMessage())
	})
}

func TestMockBot_SendPhoto(t *testing.T) {
	t.Parallel()

	mockBot := NewMockBot()
	_, err := mockBot.SendPhoto(context.Background(), &bot.SendPhotoParams{
		ChatID:  int64(7),
		Photo:   &models.InputFileUpload{Filename: "grafico.png", Data: bytes.NewReader([]byte("png!"))},
		Caption: "Ingresos",
	})
	require.NoError(t, err)

	last := mockBot.LastSentPhoto()
	require.NotNil(t, last)
	require.Equal(t, "grafico.png", last.Filename)
	require.Equal(t, 4, last.Size)
	require.Equal(t, "Ingresos", last.Caption)

	mockBot.Reset()
	require.Zero(t, mockBot.SentPhotoCount())
}
