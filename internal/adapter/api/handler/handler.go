package handler

import (
	"echosocial/internal/usecase"
)

var (
	userHandler         *UserHandler
	postHandler         *PostHandler
	commentHandler      *CommentHandler
	notificationHandler *NotificationHandler
	chatHandler         *ChatHandler
	mediaHandler        *MediaHandler
)

func Setup(
	userUseCase *usecase.UserUseCase,
	postUseCase *usecase.PostUseCase,
	commentUseCase *usecase.CommentUseCase,
	notificationUseCase *usecase.NotificationUseCase,
	chatUseCase *usecase.ChatUseCase,
	mediaUseCase *usecase.MediaUseCase,
) {
	userHandler = NewUserHandler(userUseCase)
	postHandler = NewPostHandler(postUseCase)
	commentHandler = NewCommentHandler(commentUseCase)
	notificationHandler = NewNotificationHandler(notificationUseCase)
	chatHandler = NewChatHandler(chatUseCase)
	mediaHandler = NewMediaHandler(mediaUseCase)
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetPostHandler() *PostHandler {
	return postHandler
}

func GetCommentHandler() *CommentHandler {
	return commentHandler
}

func GetNotificationHandler() *NotificationHandler {
	return notificationHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetMediaHandler() *MediaHandler {
	return mediaHandler
}
