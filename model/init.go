package model

import "memchat/platform"

func InstallDB() {
	db := platform.DB
	if err := db.AutoMigrate(
		&Conversation{},
		&Message{}); err != nil {
		panic(err)
	}
}
