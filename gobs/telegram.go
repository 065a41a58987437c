// Copyright (c) 2025 BVK Chaitanya

package gobs

type TelegramState struct {
	// UserChatIDMap holds the chat ids for the authorized users who have
	// messaged the bot.
	UserChatIDMap map[string]int64
}
