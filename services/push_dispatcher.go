package services

import (
	"encoding/json"
	"os"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/ordengo/floor-api/models"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

// PushPayload is the web-push body shown on a staff device.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	URL   string `json:"url,omitempty"`
}

type PushJob struct {
	RestaurantID uint
	Payload      PushPayload
}

// PushEnqueuer is what the notification center needs from the dispatcher.
type PushEnqueuer interface {
	Enqueue(job PushJob) bool
}

// PushDispatcher delivers web-push jobs on a bounded queue with its own
// worker, so slow or failing push services never block a request. Delivery
// failures are logged and otherwise ignored; a 404/410 from the push
// service deregisters the device.
type PushDispatcher struct {
	DB         *gorm.DB
	jobs       chan PushJob
	stopChan   chan struct{}
	subscriber string
	publicKey  string
	privateKey string
}

func NewPushDispatcher(db *gorm.DB) *PushDispatcher {
	subscriber := os.Getenv("VAPID_EMAIL")
	if subscriber == "" {
		subscriber = "mailto:admin@ordengo.com"
	}
	return &PushDispatcher{
		DB:         db,
		jobs:       make(chan PushJob, 256),
		stopChan:   make(chan struct{}),
		subscriber: subscriber,
		publicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		privateKey: os.Getenv("VAPID_PRIVATE_KEY"),
	}
}

func (pd *PushDispatcher) Start() {
	go func() {
		for {
			select {
			case job := <-pd.jobs:
				pd.process(job)
			case <-pd.stopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Println("Push dispatcher started")
}

func (pd *PushDispatcher) Stop() {
	close(pd.stopChan)
}

// Enqueue hands a job to the worker without blocking. A full queue drops
// the job: push delivery is best-effort and must never stall the floor.
func (pd *PushDispatcher) Enqueue(job PushJob) bool {
	select {
	case pd.jobs <- job:
		return true
	default:
		utils.ErrorLogger.Printf("Push queue full, dropping job for restaurant %d", job.RestaurantID)
		return false
	}
}

func (pd *PushDispatcher) process(job PushJob) {
	if pd.publicKey == "" || pd.privateKey == "" {
		// VAPID keys not configured; nothing to deliver.
		return
	}

	var subs []models.PushSubscription
	if err := pd.DB.Where("restaurant_id = ?", job.RestaurantID).Find(&subs).Error; err != nil {
		utils.ErrorLogger.Printf("Error loading push subscriptions: %v", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(job.Payload)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling push payload: %v", err)
		return
	}

	for _, sub := range subs {
		resp, err := webpush.SendNotification(payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}, &webpush.Options{
			Subscriber:      pd.subscriber,
			VAPIDPublicKey:  pd.publicKey,
			VAPIDPrivateKey: pd.privateKey,
			TTL:             60,
		})
		if err != nil {
			utils.ErrorLogger.Printf("Error sending push to subscription %d: %v", sub.ID, err)
			continue
		}

		// Gone/not-found means the browser dropped the registration.
		if resp.StatusCode == 404 || resp.StatusCode == 410 {
			utils.InfoLogger.Printf("Removing dead push subscription %d", sub.ID)
			pd.DB.Delete(&models.PushSubscription{}, sub.ID)
		}
		resp.Body.Close()
	}
}
