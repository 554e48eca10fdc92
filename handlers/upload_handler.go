package handlers

import (
	"net/url"
	"strconv"
	"time"

	config "github.com/anjiri1684/mixlab_studio/configs"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
)

const lessonMediaFolder = "mixlab_lessons"

// GenerateUploadSignature signs a direct browser upload of lesson media.
func GenerateUploadSignature(c *fiber.Ctx) error {
	payload, err := SignUpload(config.Config("CLOUDINARY_URL"), lessonMediaFolder, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(payload)
}

func SignUpload(cloudinaryURL, folder string, now time.Time) (fiber.Map, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, services.StoreError("initialize cloudinary", err)
	}

	parsedURL, err := url.Parse(cloudinaryURL)
	if err != nil {
		return nil, services.StoreError("parse cloudinary url", err)
	}
	secret, _ := parsedURL.User.Password()

	paramsToSign, err := api.StructToParams(uploader.UploadParams{Folder: folder})
	if err != nil {
		return nil, services.StoreError("prepare signature params", err)
	}

	timestamp := now.Unix()
	paramsToSign.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(paramsToSign, secret)
	if err != nil {
		return nil, services.StoreError("sign upload params", err)
	}

	return fiber.Map{
		"signature":  signature,
		"timestamp":  timestamp,
		"api_key":    cld.Config.Cloud.APIKey,
		"cloud_name": cld.Config.Cloud.CloudName,
		"folder":     folder,
	}, nil
}
