package user

import (
	"fmt"

	"socialapp-backend/config"
	"socialapp-backend/internal/errors"
	"socialapp-backend/internal/middleware"
	"socialapp-backend/internal/service"
	"socialapp-backend/internal/storage"
	"socialapp-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	userService service.UserServiceInterface
	storage     storage.Storage
}

func NewProfileHandler(userService service.UserServiceInterface, storage storage.Storage) *ProfileHandler {
	return &ProfileHandler{userService, storage}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		util.Logger.Error("获取用户资料失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "")
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var updateData struct {
		Username string `json:"username"`
		Bio      string `json:"bio"`
	}

	if err := c.ShouldBindJSON(&updateData); err != nil {
		util.Logger.Warn("更新用户资料失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, updateData.Username, updateData.Bio)
	if err != nil {
		util.Logger.Error("更新用户资料失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "资料更新成功")
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	file, err := c.FormFile("avatar")
	if err != nil {
		util.Logger.Error("获取上传文件失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "无法获取上传文件", err))
		return
	}

	filename := util.GenerateUniqueFilename(file.Filename)
	path := fmt.Sprintf("avatars/%d/%s", userID, filename)

	avatarPath, err := h.storage.UploadFile(file, path)
	if err != nil {
		util.Logger.Error("上传头像失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "上传头像失败", err))
		return
	}

	avatarURL := avatarPath
	if config.AppConfig.StorageDriver == "local" {
		avatarURL = fmt.Sprintf("%s/uploads/%s", config.AppConfig.BackendURL, avatarPath)
	}

	user, err := h.userService.UpdateAvatar(c.Request.Context(), userID, avatarURL)
	if err != nil {
		util.Logger.Error("更新用户头像失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"avatar_url": user.AvatarURL,
	}, "头像上传成功")
}
